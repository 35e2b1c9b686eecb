// Command hashpw prints a bcrypt hash for a password, for pasting into a
// credential sheet or YAML file together with is_hashed: true.
//
//	hashpw -cost 12
//	echo 'Gerald!2025' | hashpw
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"tms-portal/internal/auth"
)

func main() {
	cost := flag.Int("cost", auth.DefaultCost, "bcrypt cost")
	flag.Parse()

	secret, err := readSecret(os.Stdin)
	if err != nil {
		log.Fatal(err)
	}

	h, err := auth.NewHasher(*cost)
	if err != nil {
		log.Fatal(err)
	}
	hash, err := h.Hash(secret)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(hash)
}

func readSecret(f *os.File) (string, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return readLine(f)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errors.New("empty password")
	}
	return string(first), nil
}

// readLine returns the first line of piped input without the line ending.
func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password")
	}
	return line, nil
}
