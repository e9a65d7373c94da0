package service

import "errors"

var (
	ErrInternal                     = errors.New("internal server error")
	ErrUnauthenticated              = errors.New("user is not authenticated")
	ErrPostNotFound                 = errors.New("post not found")
	ErrNotPostAuthor                = errors.New("only the author can change this post")
	ErrCommentNotFound              = errors.New("comment not found")
	ErrNotCommentAuthor             = errors.New("only the author can change this comment")
	ErrCommentConflict              = errors.New("comment was changed by someone else, reload and try again")
	ErrReplyTargetNotFound          = errors.New("comment to reply to was not found")
	ErrUserNotFound                 = errors.New("user not found")
	ErrFileMustBeImage              = errors.New("file must be an image")
	ErrFileMustHaveAValidExtension  = errors.New("file must have a valid extension")
	ErrFailedToUploadPostImageToCDN = errors.New("failed to upload post image to CDN")
)
