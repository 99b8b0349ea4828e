package main

import "onchain-leveling-backend/cmd/levelctl/root"

func main() {
	root.Execute()
}
