package main

import (
	"github.com/colefleming/inkwell/cmd/cli/auth"
	"github.com/colefleming/inkwell/cmd/cli/posts"
	"github.com/colefleming/inkwell/cmd/cli/root"
)

func main() {
	auth.InitAuth(root.GetRoot())
	posts.InitPosts(root.GetRoot())
	root.Execute()
}
