// Command docgen writes the dashboard route reference from the
// @Title/@Route/@Description/@Response annotations on the web handlers.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

type Endpoint struct {
	Title       string
	Route       string
	Description string
	Response    string
}

var (
	reTitle = regexp.MustCompile(`// @Title: (.*)`)
	reRoute = regexp.MustCompile(`// @Route: (.*)`)
	reDesc  = regexp.MustCompile(`// @Description: (.*)`)
	reResp  = regexp.MustCompile(`// @Response: (.*)`)
)

func main() {
	srcDir := flag.String("src", "internal/web", "directory holding annotated handlers")
	out := flag.String("out", "internal/docs/content/routes.adoc", "output file")
	flag.Parse()

	endpoints, err := scanDir(*srcDir)
	if err != nil {
		log.Fatalf("docgen: %v", err)
	}

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("docgen: %v", err)
	}
	defer f.Close()

	if err := writeAsciidoc(f, endpoints); err != nil {
		log.Fatalf("docgen: %v", err)
	}
	fmt.Printf("Generated %s (%d routes)\n", *out, len(endpoints))
}

// scanDir collects annotated endpoints from the non-test Go files in dir,
// in file name order.
func scanDir(dir string) ([]Endpoint, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, file := range files {
		if strings.HasSuffix(file.Name(), ".go") && !strings.HasSuffix(file.Name(), "_test.go") {
			names = append(names, file.Name())
		}
	}
	sort.Strings(names)

	var endpoints []Endpoint
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		found, err := scan(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		endpoints = append(endpoints, found...)
	}
	return endpoints, nil
}

// scan reads annotation blocks. A block ends at its @Response line.
func scan(r io.Reader) ([]Endpoint, error) {
	var endpoints []Endpoint
	var current Endpoint

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		if match := reTitle.FindStringSubmatch(line); len(match) > 1 {
			current.Title = strings.TrimSpace(match[1])
		}
		if match := reRoute.FindStringSubmatch(line); len(match) > 1 {
			current.Route = strings.TrimSpace(match[1])
		}
		if match := reDesc.FindStringSubmatch(line); len(match) > 1 {
			current.Description = strings.TrimSpace(match[1])
		}
		if match := reResp.FindStringSubmatch(line); len(match) > 1 {
			current.Response = strings.TrimSpace(match[1])
			if current.Title != "" && current.Route != "" {
				endpoints = append(endpoints, current)
			}
			current = Endpoint{}
		}
	}
	return endpoints, scanner.Err()
}

func writeAsciidoc(w io.Writer, endpoints []Endpoint) error {
	var b strings.Builder
	b.WriteString("= Dashboard routes\n\n")
	b.WriteString("Generated by cmd/docgen from handler annotations in internal/web.\n\n")
	b.WriteString("[cols=\"1,2,3,3\"]\n|===\n|Title |Route |Description |Response\n")
	for _, ep := range endpoints {
		fmt.Fprintf(&b, "\n|%s\n|`%s`\n|%s\n|%s\n",
			cell(ep.Title), cell(ep.Route), cell(ep.Description), cell(ep.Response))
	}
	b.WriteString("|===\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// cell escapes the table separator.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
