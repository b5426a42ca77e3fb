// Copyright 2026 The Gatehouse Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"bufio"
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"
)

// ReadFromPath reads a secret from a file, or from stdin when path is
// "-". Surrounding whitespace is trimmed before storing. The returned
// buffer must be closed by the caller.
func ReadFromPath(path string) (*Buffer, error) {
	var data []byte

	if path == "-" {
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("reading stdin: %w", err)
			}
			return nil, fmt.Errorf("stdin is empty")
		}
		data = scanner.Bytes()
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		Zero(data)
		return nil, fmt.Errorf("secret is empty")
	}

	buffer, err := NewFromBytes(trimmed)
	// trimmed aliases data; zero the whitespace margins too.
	Zero(data)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// ReadInteractive prompts on stderr and reads a secret from stdin.
// When stdin is a terminal the echo is turned off; when it is piped,
// one line is read as-is. The returned buffer must be closed by the
// caller.
func ReadInteractive(prompt string) (*Buffer, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading secret: %w", err)
		}
		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			Zero(raw)
			return nil, fmt.Errorf("secret is empty")
		}
		buffer, err := NewFromBytes(trimmed)
		Zero(raw)
		return buffer, err
	}
	return ReadFromPath("-")
}
