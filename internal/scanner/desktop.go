package scanner

import (
	"bufio"
	"os"
	"os/exec"
	"strings"
)

type desktopEntry struct {
	name      string
	exec      string
	entryType string
	noDisplay bool
	hidden    bool
}

func (e desktopEntry) launchable() bool {
	return e.exec != "" && !e.noDisplay && !e.hidden &&
		(e.entryType == "" || e.entryType == "Application")
}

// readDesktopEntry reads the keys AppDeck needs from the [Desktop Entry]
// group. Localized keys such as Name[de] are ignored.
func readDesktopEntry(path string) (desktopEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return desktopEntry{}, err
	}
	defer file.Close()

	var (
		entry   desktopEntry
		inEntry bool
	)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "Name":
			entry.name = value
		case "Exec":
			entry.exec = value
		case "Type":
			entry.entryType = value
		case "NoDisplay":
			entry.noDisplay = strings.EqualFold(value, "true")
		case "Hidden":
			entry.hidden = strings.EqualFold(value, "true")
		}
	}
	return entry, scanner.Err()
}

// execProgram returns the program token of a desktop Exec value, honouring
// double quotes and skipping an `env VAR=value` prefix. Field codes such as
// %U are never part of the first token.
func execProgram(command string) string {
	tokens := splitExec(command)
	if len(tokens) > 0 && tokens[0] == "env" {
		tokens = tokens[1:]
		for len(tokens) > 0 && strings.Contains(tokens[0], "=") {
			tokens = tokens[1:]
		}
	}
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

func splitExec(command string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		escaped bool
	)
	for _, r := range command {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quoted:
			escaped = true
		case r == '"':
			quoted = !quoted
		case (r == ' ' || r == '\t') && !quoted:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func lookPath(program string) (string, error) {
	return exec.LookPath(program)
}
