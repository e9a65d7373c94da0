package main

import (
	"fmt"
	"io"

	"github.com/BloggingApp/journal-service/internal/composer"
	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/thread"
)

const timeLayout = "2006-01-02 15:04"

func authorName(comment *model.FullComment) string {
	if comment.Author == nil {
		return "[unknown]"
	}
	return comment.Author.Username
}

func renderComment(w io.Writer, prefix string, comment *model.FullComment, actor *composer.Actor) {
	mark := ""
	if composer.CanEdit(actor, comment) {
		mark = " (you)"
	}
	edited := ""
	if comment.Comment.UpdatedAt.After(comment.Comment.CreatedAt) {
		edited = " edited"
	}
	fmt.Fprintf(w, "%s#%d %s%s %s%s\n", prefix, comment.Comment.ID, authorName(comment), mark, comment.Comment.CreatedAt.Local().Format(timeLayout), edited)
	fmt.Fprintf(w, "%s  %s\n", prefix, comment.Comment.Content)
}

func renderThread(w io.Writer, nodes []*thread.Node, actor *composer.Actor) {
	if len(nodes) == 0 {
		fmt.Fprintln(w, "no comments yet")
		return
	}

	for _, node := range nodes {
		renderComment(w, "", node.Root, actor)
		for _, reply := range node.Replies {
			renderComment(w, "    ", reply, actor)
		}
	}
}
