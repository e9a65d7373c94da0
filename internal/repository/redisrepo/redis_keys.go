package redisrepo

import "fmt"

const (
	POST_KEY                  = "post:%d"                  // <postID>
	POST_COMMENTS_KEY         = "post-comments:%d:v%d"     // <postID>, <version>
	POST_COMMENTS_VERSION_KEY = "post-comments-version:%d" // <postID>
	USER_CACHE_KEY            = "user-cache:%s"            // <userID>
)

func PostKey(postID int64) string {
	return fmt.Sprintf(POST_KEY, postID)
}

// PostCommentsKey names one generation of a post's cached comment rows.
// Bumping PostCommentsVersionKey retires every older generation.
func PostCommentsKey(postID, version int64) string {
	return fmt.Sprintf(POST_COMMENTS_KEY, postID, version)
}

func PostCommentsVersionKey(postID int64) string {
	return fmt.Sprintf(POST_COMMENTS_VERSION_KEY, postID)
}

func UserCacheKey(userID string) string {
	return fmt.Sprintf(USER_CACHE_KEY, userID)
}
