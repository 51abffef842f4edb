package migrate

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	confirmationPromptTemplateConstant = "%s [y/N]: "
	affirmativeShortAnswerConstant     = "y"
	affirmativeLongAnswerConstant      = "yes"
)

// ConfirmationPrompter asks the operator to approve an action.
type ConfirmationPrompter interface {
	Confirm(promptMessage string) (bool, error)
}

// IOConfirmationPrompter reads confirmations from an input stream. Workers
// prompt concurrently, so prompting is serialized: one question finishes
// reading its answer before the next question is written.
type IOConfirmationPrompter struct {
	mutex  sync.Mutex
	reader *bufio.Reader
	writer io.Writer
}

// NewIOConfirmationPrompter constructs a prompter over the provided streams.
func NewIOConfirmationPrompter(inputReader io.Reader, outputWriter io.Writer) *IOConfirmationPrompter {
	return &IOConfirmationPrompter{
		reader: bufio.NewReader(inputReader),
		writer: outputWriter,
	}
}

// Confirm writes the prompt and interprets the next input line. Only "y" and
// "yes" (case-insensitive) count as approval; everything else declines.
// Safe for concurrent use.
func (prompter *IOConfirmationPrompter) Confirm(promptMessage string) (bool, error) {
	prompter.mutex.Lock()
	defer prompter.mutex.Unlock()

	if _, writeError := fmt.Fprintf(prompter.writer, confirmationPromptTemplateConstant, promptMessage); writeError != nil {
		return false, writeError
	}

	answerLine, readError := prompter.reader.ReadString('\n')
	if readError != nil && len(answerLine) == 0 {
		return false, readError
	}

	normalizedAnswer := strings.ToLower(strings.TrimSpace(answerLine))
	return normalizedAnswer == affirmativeShortAnswerConstant || normalizedAnswer == affirmativeLongAnswerConstant, nil
}
