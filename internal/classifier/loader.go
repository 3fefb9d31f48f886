package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/glucorisk/backend/pkg/logger"
)

// Paths locates the model file of each variant. Empty paths are skipped.
type Paths struct {
	GradientBoosting string
	CatBoost         string
	KNN              string
}

// Set is the collection of models that loaded successfully.
type Set struct {
	byName map[string]Classifier
}

type validator interface {
	Validate() error
}

// Priority is the fixed order in which a loaded variant becomes active.
var Priority = []string{NameGradientBoosting, NameCatBoost, NameKNN}

// LoadAll loads every configured variant. A variant that fails to load is
// logged and left out; it never fails the whole set.
func LoadAll(paths Paths) *Set {
	set := &Set{byName: make(map[string]Classifier)}

	set.try(NameGradientBoosting, paths.GradientBoosting, &GradientBoosting{})
	set.try(NameCatBoost, paths.CatBoost, &CatBoost{})
	set.try(NameKNN, paths.KNN, &KNN{})

	return set
}

func (s *Set) try(name, path string, model Classifier) {
	if path == "" {
		return
	}
	if err := loadJSON(path, model); err != nil {
		logger.Warn("Model failed to load", zap.String("model", name), zap.String("path", path), zap.Error(err))
		return
	}
	s.byName[name] = model
	logger.Info("Model loaded", zap.String("model", name), zap.String("path", path))
}

// Add registers an already constructed model, replacing any with the same name.
func (s *Set) Add(model Classifier) {
	if s.byName == nil {
		s.byName = make(map[string]Classifier)
	}
	s.byName[model.Name()] = model
}

// Names lists the loaded variants in priority order.
func (s *Set) Names() []string {
	var names []string
	for _, name := range Priority {
		if _, ok := s.byName[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Select returns the highest-priority loaded model, or nil when none loaded.
func (s *Set) Select() Classifier {
	for _, name := range Priority {
		if m, ok := s.byName[name]; ok {
			return m
		}
	}
	return nil
}

func loadJSON(path string, model Classifier) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model file: %w", err)
	}
	if err := json.Unmarshal(data, model); err != nil {
		return fmt.Errorf("failed to decode model file: %w", err)
	}
	if v, ok := model.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("invalid %s model: %w", model.Name(), err)
		}
	}
	return nil
}
