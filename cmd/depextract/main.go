// Command depextract converts nested scientific-data records into JSON.
package main

import "github.com/dbsmedya/depextract/cmd/depextract/cmd"

func main() {
	cmd.Execute()
}
