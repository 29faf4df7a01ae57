// Package automod provides the message filter engine and join-burst tracking.
package automod

import (
	"bufio"
	"os"
	"strings"

	"stan-guard/internal/logger"
)

// GlobalLists holds the bot-wide term lists loaded once at startup. A missing
// or unreadable file degrades to an empty list so per-community custom terms
// keep working.
type GlobalLists struct {
	Blacklist []string
	BadLinks  []string
}

func LoadGlobalLists(blacklistPath, badLinksPath string) *GlobalLists {
	return &GlobalLists{
		Blacklist: loadTermFile(blacklistPath),
		BadLinks:  loadTermFile(badLinksPath),
	}
}

func loadTermFile(path string) []string {
	if path == "" {
		return nil
	}
	file, err := os.Open(path)
	if err != nil {
		logger.Warningf("Could not load term list %s, continuing with empty list: %v", path, err)
		return nil
	}
	defer file.Close()

	var terms []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		term := strings.TrimSpace(scanner.Text())
		if term != "" {
			terms = append(terms, term)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warningf("Error reading term list %s: %v", path, err)
	}
	return terms
}
