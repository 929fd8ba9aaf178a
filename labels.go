package holodetect

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Labels are the class names a Model was trained on, indexed by class
type Labels []string

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) (Labels, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	return ReadLabels(f)
}

// ReadLabels reads one label per line from r, blank lines are skipped
func ReadLabels(r io.Reader) (Labels, error) {

	// create a scanner to read the file.
	scanner := bufio.NewScanner(r)

	var labels Labels

	// read and trim each line
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		labels = append(labels, line)
	}

	// check for errors during scanning
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// Name returns the label for the class index, or a placeholder if the class
// is outside of the known labels
func (l Labels) Name(class int) string {

	if class < 0 || class >= len(l) {
		return fmt.Sprintf("class %d", class)
	}

	return l[class]
}
