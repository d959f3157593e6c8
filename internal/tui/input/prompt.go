// Package input parses the viewer's command prompt.
package input

import "strings"

// Command is a prompt command such as "/day".
type Command struct {
	Name        string // including the leading slash
	Usage       string // argument placeholder, "" if none
	Description string
}

// Parse splits a prompt line into a command name and its argument. The name
// is lower-cased; ok is false for input not starting with "/".
func Parse(line string) (name, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	name, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(name), strings.TrimSpace(arg), true
}

// Matching returns the commands whose name starts with the typed prefix. Once
// an argument is being typed nothing matches.
func Matching(line string, commands []Command) []Command {
	name, _, ok := Parse(line)
	if !ok || strings.Contains(strings.TrimLeft(line, " "), " ") {
		return nil
	}
	out := make([]Command, 0, len(commands))
	for _, c := range commands {
		if strings.HasPrefix(c.Name, name) {
			out = append(out, c)
		}
	}
	return out
}

// Complete returns the line completed to the first matching command.
func Complete(line string, commands []Command) (string, bool) {
	matches := Matching(line, commands)
	if len(matches) == 0 {
		return line, false
	}
	c := matches[0]
	if c.Usage == "" {
		return c.Name, true
	}
	return c.Name + " ", true
}

// Lookup finds a command by exact name.
func Lookup(name string, commands []Command) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
