package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"auto_blog_tagger/generator"
)

// loadBatch 读取 YAML 列表，每项包含 title 和 content。
func loadBatch(path string) ([]generator.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []generator.WorkItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, errors.New("batch file contains no items")
	}
	for i, it := range items {
		if strings.TrimSpace(it.Title) == "" || strings.TrimSpace(it.Content) == "" {
			return nil, fmt.Errorf("item %d: title and content are required", i)
		}
	}
	return items, nil
}
