package main

import "github.com/dbsmedya/godecomp/cmd/godecomp/cmd"

func main() {
	cmd.Execute()
}
