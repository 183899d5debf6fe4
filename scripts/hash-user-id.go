package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/hash-user-id.go <hash-key> <platform-user-id>\n")
		os.Exit(1)
	}

	mac := hmac.New(sha256.New, []byte(os.Args[1]))
	mac.Write([]byte(os.Args[2]))

	fmt.Println(hex.EncodeToString(mac.Sum(nil)))
}
