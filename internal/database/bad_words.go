package database

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"
)

const badWordsURL = "https://raw.githubusercontent.com/LDNOOBW/List-of-Dirty-Naughty-Obscene-and-Otherwise-Bad-Words/refs/heads/master/en"

// SeedBadWords fetches and seeds the bad words list from GitHub
func (db *DB) SeedBadWords(ctx context.Context) error {
	// Check if bad words already exist
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM bad_words").Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check bad words count: %w", err)
	}

	if count > 0 {
		log.Printf("Bad words filter already populated with %d words", count)
		return nil
	}

	log.Println("Downloading bad words list...")

	// Fetch the bad words list
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, badWordsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build bad words request: %w", err)
	}
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download bad words list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status code from bad words URL: %d", resp.StatusCode)
	}

	wordsAdded, err := db.SeedBadWordsFrom(ctx, resp.Body)
	if err != nil {
		return err
	}

	log.Printf("Bad words filter populated with %d words", wordsAdded)
	return nil
}

// SeedBadWordsFrom inserts one word per line from r, skipping blanks and duplicates
func (db *DB) SeedBadWordsFrom(ctx context.Context, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	wordsAdded := 0

	err := db.WithTx(ctx, func(tx *Tx) error {
		insertQuery := tx.GetDialect().InsertIgnore("bad_words", "word")
		for scanner.Scan() {
			word := strings.TrimSpace(strings.ToLower(scanner.Text()))
			if word == "" {
				continue
			}

			res, err := tx.ExecContext(ctx, insertQuery, word)
			if err != nil {
				return fmt.Errorf("failed to insert bad word: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				wordsAdded++
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("error reading bad words: %w", err)
		}
		return nil
	})
	return wordsAdded, err
}

// IsBadWord checks if a word is in the bad words list
func (db *DB) IsBadWord(ctx context.Context, word string) (bool, error) {
	cleanWord := strings.TrimSpace(strings.ToLower(word))

	var count int
	query := "SELECT COUNT(*) FROM bad_words WHERE word = ?"
	err := db.QueryRowContext(ctx, query, cleanWord).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check bad word: %w", err)
	}

	if count > 0 {
		log.Printf("Bad word detected: '%s'", word)
	}

	return count > 0, nil
}

// ValidateWords checks a list of words against the bad words filter
// Returns the list of bad words found
func (db *DB) ValidateWords(ctx context.Context, words []string) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}

	var badWords []string
	for _, word := range words {
		isBad, err := db.IsBadWord(ctx, word)
		if err != nil {
			return nil, err
		}
		if isBad {
			badWords = append(badWords, word)
		}
	}

	return badWords, nil
}

// ContainsBadWord splits free text such as a goal or display name into words
// and reports whether any of them is filtered
func (db *DB) ContainsBadWord(ctx context.Context, text string) (bool, error) {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	found, err := db.ValidateWords(ctx, words)
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}
