package alerting

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// definitionsFile is the YAML shape of a seeded alerts file.
type definitionsFile struct {
	Alerts []definitionSpec `yaml:"alerts"`
}

type definitionSpec struct {
	ItemName   string  `yaml:"item_name"`
	ItemID     int64   `yaml:"item_id,omitempty"`
	Type       string  `yaml:"type"`
	Condition  string  `yaml:"condition,omitempty"`
	Threshold  float64 `yaml:"threshold,omitempty"`
	Expression string  `yaml:"expression,omitempty"`
	Priority   string  `yaml:"priority,omitempty"`
	OneTime    bool    `yaml:"one_time,omitempty"`
	Cooldown   string  `yaml:"cooldown,omitempty"`

	BaselinePrice  *float64 `yaml:"baseline_price,omitempty"`
	BaselineVolume *float64 `yaml:"baseline_volume,omitempty"`
	BaselineMargin *float64 `yaml:"baseline_margin,omitempty"`
}

// LoadDefinitionsFromFile parses seeded alert definitions from a YAML file.
func LoadDefinitionsFromFile(path string) ([]models.AlertDefinition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open alerts file: %w", err)
	}
	defer f.Close()

	return LoadDefinitions(f)
}

// LoadDefinitions parses seeded alert definitions from a reader.
func LoadDefinitions(r io.Reader) ([]models.AlertDefinition, error) {
	var file definitionsFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("parse alerts YAML: %w", err)
	}

	defs := make([]models.AlertDefinition, 0, len(file.Alerts))
	for i, spec := range file.Alerts {
		def := models.AlertDefinition{
			ItemName:       spec.ItemName,
			ItemID:         spec.ItemID,
			Type:           models.AlertType(spec.Type),
			Condition:      models.Condition(spec.Condition),
			Threshold:      spec.Threshold,
			Expression:     spec.Expression,
			Priority:       models.ParsePriority(spec.Priority),
			OneTime:        spec.OneTime,
			BaselinePrice:  spec.BaselinePrice,
			BaselineVolume: spec.BaselineVolume,
			BaselineMargin: spec.BaselineMargin,
			Origin:         "file",
		}
		if spec.Cooldown != "" {
			d, err := time.ParseDuration(spec.Cooldown)
			if err != nil {
				return nil, fmt.Errorf("alert %d: invalid cooldown %q: %w", i, spec.Cooldown, err)
			}
			def.Cooldown = d
		}
		if def.BaselinePrice != nil || def.BaselineVolume != nil || def.BaselineMargin != nil {
			def.BaselineSource = models.BaselineMeasured
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("alert %d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// WatchDefinitions reloads the alerts file into the store whenever it
// changes, until ctx is cancelled. A file that fails to parse leaves the
// current definitions in place.
func WatchDefinitions(ctx context.Context, path string, store *Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save, which would
	// otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			defs, err := LoadDefinitionsFromFile(path)
			if err != nil {
				log.Printf("reload alerts file: %v", err)
				continue
			}
			if err := store.SyncSeeded(defs); err != nil {
				log.Printf("sync seeded alerts: %v", err)
				continue
			}
			log.Printf("reloaded %d seeded alerts from %s", len(defs), path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("alerts file watcher: %v", err)
		}
	}
}
