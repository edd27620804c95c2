package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"pubsubchat/internal/crypto"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "keygen",
		Usage: "write a shared secret for sealed chat payloads (CHAT_SECRET_FILE)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "chat.key",
				Usage:   "file to write the base64 secret to",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite an existing file",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			return writeSecret(cliCtx.String("out"), cliCtx.Bool("force"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func writeSecret(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	secret, err := crypto.GenerateSecret()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	encoded := base64.StdEncoding.EncodeToString(secret) + "\n"
	if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	fmt.Printf("Secret written to %s. Share it with the other participant and set CHAT_SECRET_FILE.\n", path)
	return nil
}
