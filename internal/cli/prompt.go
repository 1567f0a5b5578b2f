package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/memoir-dev/memoir/internal/merge"
	"github.com/memoir-dev/memoir/internal/promote"
)

// stdinDecider is the interactive reviewer: one candidate at a time on out,
// verdicts read line by line from in.
type stdinDecider struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinDecider(in io.Reader, out io.Writer) *stdinDecider {
	return &stdinDecider{in: bufio.NewReader(in), out: out}
}

func (d *stdinDecider) Decide(c *promote.Candidate) (promote.Verdict, error) {
	m := c.Memory
	fmt.Fprintf(d.out, "\n[%d/%d] %s\n", c.Index, c.Total, m.Content.Title)
	fmt.Fprintf(d.out, "  type %s, confidence %.2f, ratio %.2f\n",
		m.Type, m.Metadata.Confidence, m.PositiveRatio())
	if m.Content.Description != "" {
		fmt.Fprintf(d.out, "  %s\n", m.Content.Description)
	}
	if m.Content.Action != "" {
		fmt.Fprintf(d.out, "  action: %s\n", m.Content.Action)
	}
	fmt.Fprintf(d.out, "  target: %s\n", c.TargetPath)
	if c.Duplicate.Kind != merge.MatchNew {
		fmt.Fprintf(d.out, "  warning: %s duplicate of %q\n", c.Duplicate.Kind, c.Duplicate.Title)
	}
	for _, o := range c.Overlaps {
		fmt.Fprintf(d.out, "  overlaps %q: %s\n", o.Section, strings.Join(o.Keywords, ", "))
		fmt.Fprintf(d.out, "    %s\n", o.Preview)
	}

	for {
		fmt.Fprint(d.out, "\n[a]dd / [d]evelop / [s]kip / [k]eep observing / [q]uit: ")
		line, err := d.in.ReadString('\n')
		if err != nil && line == "" {
			// stdin closed mid-session reads as quit
			return promote.Verdict{Action: promote.ActionQuit}, nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "a", "add":
			return promote.Verdict{Action: promote.ActionAdd}, nil
		case "d", "develop":
			return d.develop(c)
		case "s", "skip":
			reason := d.ask("Reason for skipping (optional): ")
			return promote.Verdict{Action: promote.ActionSkip, Reason: reason}, nil
		case "k", "keep":
			return promote.Verdict{Action: promote.ActionKeep}, nil
		case "q", "quit":
			return promote.Verdict{Action: promote.ActionQuit}, nil
		}
		fmt.Fprintln(d.out, "unrecognized choice")
	}
}

// develop walks the reviewer through editing the entry before it lands.
// Empty answers keep the current value; declining the confirmation leaves
// the record a candidate.
func (d *stdinDecider) develop(c *promote.Candidate) (promote.Verdict, error) {
	edited := *c.Memory
	edited.Content = c.Memory.Content

	if v := d.ask(fmt.Sprintf("Title [%s]: ", edited.Content.Title)); v != "" {
		edited.Content.Title = v
	}
	if v := d.ask(fmt.Sprintf("Description [%s]: ", edited.Content.Description)); v != "" {
		edited.Content.Description = v
	}
	if v := d.ask(fmt.Sprintf("Action [%s]: ", edited.Content.Action)); v != "" {
		edited.Content.Action = v
	}

	fmt.Fprintf(d.out, "\n- **%s**\n  - %s\n", edited.Content.Title, edited.Content.Description)
	if strings.ToLower(d.ask("Add this version? [y/N]: ")) != "y" {
		return promote.Verdict{Action: promote.ActionDevelop}, nil
	}
	return promote.Verdict{Action: promote.ActionDevelop, Edited: &edited}, nil
}

func (d *stdinDecider) ask(prompt string) string {
	fmt.Fprint(d.out, prompt)
	line, _ := d.in.ReadString('\n')
	return strings.TrimSpace(line)
}
