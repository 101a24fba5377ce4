package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"igunfollow/pkg/models"
)

// previewLimit bounds how many queue entries are listed before truncating.
const previewLimit = 30

// PrintQueuePreview lists the accounts queued for unfollowing so the operator
// can sanity-check the reconciliation before anything destructive runs.
func PrintQueuePreview(queue *models.ActionQueue) {
	if queue.Len() == 0 {
		PrintSuccess("✓ Everyone you follow follows you back. Nothing to do.")
		return
	}

	PrintHighlight(fmt.Sprintf("── %d accounts do not follow you back ──", queue.Len()))
	for i, entry := range queue.Entries {
		if i >= previewLimit {
			fmt.Println(Dim(fmt.Sprintf("   ... and %d more", queue.Len()-previewLimit)))
			break
		}
		fmt.Printf(" %3d. %s\n", i+1, Yellow("@"+entry.Username))
	}
	fmt.Println()
}

// Confirm prompts for a yes/no answer on in, returning true only for an
// explicit yes.
func Confirm(in io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", Cyan(prompt))

	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
