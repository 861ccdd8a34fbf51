package main

import "github.com/frahmantamala/planning-admin/cmd"

func main() {
	cmd.Execute()
}
