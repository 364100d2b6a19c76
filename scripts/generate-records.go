//go:build ignore

// Package main generates a synthetic people table for benchmarking
// `fuzzymatch create` and `fuzzymatch get`. Every base record is followed by
// noisy near-duplicates: swapped or dropped letters in the name, a nearby
// join date, the same city.
// Usage: go run scripts/generate-records.go -records 10000 -output testdata/people.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

var (
	numRecords = flag.Int("records", 10000, "Number of base records")
	dupes      = flag.Int("dupes", 2, "Noisy copies per base record")
	outputPath = flag.String("output", "testdata/people.csv", "Output CSV file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var (
	firstNames = []string{
		"Alice", "Bob", "Carla", "Dmitri", "Elena", "Farid", "Greta", "Hiro",
		"Ines", "Jonas", "Kwame", "Lena", "Mateo", "Nadia", "Oscar", "Priya",
		"Quentin", "Rosa", "Sven", "Tariq", "Uma", "Viktor", "Wen", "Yara",
	}
	lastNames = []string{
		"Smith", "Jones", "Garcia", "Nowak", "Berg", "Rossi", "Tanaka", "Okafor",
		"Dubois", "Kowalski", "Silva", "Larsen", "Novak", "Haddad", "Petrov",
	}
	cities = []string{
		"Oslo", "Bergen", "Madrid", "Krakow", "Lisbon", "Lagos", "Osaka",
		"Lyon", "Porto", "Tallinn", "Riga", "Zagreb", "Cork", "Gent",
	}
)

const dateFormat = "02-01-2006" // %d-%m-%Y

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output dir: %v\n", err)
		os.Exit(1)
	}
	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputPath, err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	_ = w.Write([]string{"person_id", "name", "city", "joined_date"})

	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	id := 0
	for i := 0; i < *numRecords; i++ {
		name := firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]
		city := cities[rng.Intn(len(cities))]
		joined := base.AddDate(0, 0, rng.Intn(3650))

		id++
		_ = w.Write([]string{fmt.Sprint(id), name, city, joined.Format(dateFormat)})

		for d := 0; d < *dupes; d++ {
			id++
			jitter := joined.AddDate(0, 0, rng.Intn(21)-10)
			_ = w.Write([]string{fmt.Sprint(id), typo(rng, name), city, jitter.Format(dateFormat)})
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d records to %s\n", id, *outputPath)
}

// typo swaps two adjacent letters or drops one.
func typo(rng *rand.Rand, s string) string {
	r := []rune(s)
	if len(r) < 3 {
		return s
	}
	i := 1 + rng.Intn(len(r)-2)
	if rng.Intn(2) == 0 {
		r[i], r[i+1] = r[i+1], r[i]
		return string(r)
	}
	return string(append(r[:i], r[i+1:]...))
}
