// cmd/tools/hashtoken/main.go
//
// hashtoken prints the bcrypt hash to put in APP_API_TOKEN_HASH. The token is
// read from -token or, when empty, from the first line of stdin.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/api/auth"
	"github.com/codr1/refschedule/internal/logging"
)

func main() {
	token := flag.String("token", "", "API token to hash (reads stdin when empty)")
	flag.Parse()
	logging.Setup(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))

	hash, err := run(*token, os.Stdin)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash token")
	}
	fmt.Println(hash)
}

func run(token string, stdin io.Reader) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}
	if token == "" {
		return "", auth.ErrMissingToken
	}
	return auth.HashToken(token)
}
