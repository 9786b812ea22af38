package detector

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Labels maps class IDs to human-readable names.
type Labels []string

// Name returns the label for a class ID, or "class<N>" when it has none.
func (l Labels) Name(classID int) string {
	if classID >= 0 && classID < len(l) && l[classID] != "" {
		return l[classID]
	}
	return fmt.Sprintf("class%d", classID)
}

// LoadLabels reads class names from path.
// Files ending in .yaml or .yml are read as an ultralytics dataset file and
// use its names key. Anything else is read as one name per line.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseDatasetNames(data)
	default:
		return parseLabelLines(data), nil
	}
}

func parseLabelLines(data []byte) Labels {
	var labels Labels
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	return labels
}

// parseDatasetNames accepts both forms ultralytics writes:
//
//	names: [paper, plastic]
//	names:
//	  0: paper
//	  1: plastic
func parseDatasetNames(data []byte) (Labels, error) {
	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}

	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("parse labels: %w", err)
		}
		return Labels(names), nil

	case yaml.MappingNode:
		var byID map[int]string
		if err := doc.Names.Decode(&byID); err != nil {
			return nil, fmt.Errorf("parse labels: %w", err)
		}
		maxID := -1
		for id := range byID {
			if id < 0 {
				return nil, fmt.Errorf("parse labels: negative class id %d", id)
			}
			if id > maxID {
				maxID = id
			}
		}
		labels := make(Labels, maxID+1)
		for id, name := range byID {
			labels[id] = name
		}
		return labels, nil
	}

	return nil, errors.New("parse labels: no names key")
}
