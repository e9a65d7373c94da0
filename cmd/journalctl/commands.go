package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BloggingApp/journal-service/internal/composer"
	"github.com/spf13/cobra"
)

func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, value)
	}
	return id, nil
}

// report turns the result of a submit into the message printed to the user.
func report(c *composer.Controller, key composer.SlotKey, err error) error {
	switch composer.OutcomeOf(err) {
	case composer.OutcomeSuccess:
		return nil
	case composer.OutcomeLoginRedirect:
		return errNotSignedIn
	default:
		if msg := c.Slot(key).Err; msg != "" {
			return errors.New(msg)
		}
		return errors.New(composer.GenericFailureMessage)
	}
}

func newThreadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "thread <postID>",
		Short: "Print the comment thread of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post id", args[0])
			if err != nil {
				return err
			}
			actor, err := currentActor()
			if err != nil {
				return err
			}

			c := newController(postID)
			if err := c.Load(cmd.Context(), actor); err != nil {
				return report(c, composer.NewCommentSlot(), err)
			}

			renderThread(cmd.OutOrStdout(), c.Thread(), actor)
			return nil
		},
	}
}

func newCommentCommand() *cobra.Command {
	var replyTo int64

	cmd := &cobra.Command{
		Use:   "comment <postID> <text>",
		Short: "Write a comment, or a reply with --reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post id", args[0])
			if err != nil {
				return err
			}
			actor, err := currentActor()
			if err != nil {
				return err
			}
			content := strings.Join(args[1:], " ")

			c := newController(postID)
			var replyTarget *int64
			key := composer.NewCommentSlot()
			if replyTo > 0 {
				if err := c.Load(cmd.Context(), actor); err != nil {
					return report(c, key, err)
				}
				replyTarget = &replyTo
				key = c.OpenReply(replyTo)
			}

			comment, err := c.SubmitCreate(cmd.Context(), actor, content, replyTarget)
			if err != nil {
				return report(c, key, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "posted comment #%d\n", comment.ID)
			renderThread(cmd.OutOrStdout(), c.Thread(), actor)
			return nil
		},
	}
	cmd.Flags().Int64Var(&replyTo, "reply", 0, "id of the comment to reply to")

	return cmd
}

func newEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <postID> <commentID> <text>",
		Short: "Replace the text of one of your comments",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post id", args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID("comment id", args[1])
			if err != nil {
				return err
			}
			actor, err := currentActor()
			if err != nil {
				return err
			}
			if actor == nil {
				return errNotSignedIn
			}

			c := newController(postID)
			if err := c.Load(cmd.Context(), actor); err != nil {
				return report(c, composer.EditSlot(commentID), err)
			}
			key, err := c.StartEditing(actor, commentID)
			if err != nil {
				return err
			}

			if _, err := c.SubmitEdit(cmd.Context(), actor, commentID, strings.Join(args[2:], " ")); err != nil {
				return report(c, key, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "edited comment #%d\n", commentID)
			renderThread(cmd.OutOrStdout(), c.Thread(), actor)
			return nil
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <postID> <commentID>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			postID, err := parseID("post id", args[0])
			if err != nil {
				return err
			}
			commentID, err := parseID("comment id", args[1])
			if err != nil {
				return err
			}
			actor, err := currentActor()
			if err != nil {
				return err
			}

			c := newController(postID)
			if err := c.SubmitDelete(cmd.Context(), actor, commentID); err != nil {
				return report(c, composer.DeleteSlot(commentID), err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted comment #%d\n", commentID)
			renderThread(cmd.OutOrStdout(), c.Thread(), actor)
			return nil
		},
	}
}
