// cmd/main.go
package main

import "github.com/mwiater/gollamabench/cmd/gollamabench"

func main() {
	gollamabench.Execute()
}
