package configuration

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/markusressel/fanhold/internal/util"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Store persists the configuration of the daemon.
type Store interface {
	// Load reads and validates the configuration.
	Load() (*Configuration, error)
	// Save validates and writes the whole configuration.
	Save(config *Configuration) error
	// SaveOverride writes the persisted override of a single group, nil removes it.
	SaveOverride(groupId string, override *OverrideConfig) error
}

// FileStore keeps the configuration in a yaml file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (*Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(s.path)
	setDefaultValues(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", s.path, err)
	}

	config, err := LoadConfig(v)
	if err != nil {
		return nil, err
	}
	if err = Validate(config, s.path); err != nil {
		return nil, err
	}
	return config, nil
}

func (s *FileStore) Save(config *Configuration) error {
	if err := Validate(config, ""); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return util.WriteFileAtomic(s.path, data)
}

// SaveOverride edits the yaml document in place, so comments and formatting of the
// rest of the file are kept.
func (s *FileStore) SaveOverride(groupId string, override *OverrideConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var document yaml.Node
	if err = yaml.Unmarshal(data, &document); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", s.path, err)
	}
	if document.Kind != yaml.DocumentNode || len(document.Content) <= 0 {
		return errors.New("config file is empty")
	}

	groups := mappingValue(document.Content[0], "groups")
	if groups == nil || groups.Kind != yaml.SequenceNode {
		return fmt.Errorf("config file %s has no groups", s.path)
	}

	var group *yaml.Node
	for _, item := range groups.Content {
		id := mappingValue(item, "id")
		if id != nil && id.Value == groupId {
			group = item
			break
		}
	}
	if group == nil {
		return fmt.Errorf("no group definition with id '%s' found in %s", groupId, s.path)
	}

	if override == nil {
		removeMappingValue(group, "override")
	} else {
		var value yaml.Node
		if err = value.Encode(override); err != nil {
			return err
		}
		setMappingValue(group, "override", &value)
	}

	var out strings.Builder
	encoder := yaml.NewEncoder(&out)
	encoder.SetIndent(2)
	if err = encoder.Encode(&document); err != nil {
		return err
	}
	if err = encoder.Close(); err != nil {
		return err
	}
	return util.WriteFileAtomic(s.path, []byte(out.String()))
}

// viper matches keys case-insensitively, so do we
func mappingIndex(node *yaml.Node, key string) int {
	if node == nil || node.Kind != yaml.MappingNode {
		return -1
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if strings.EqualFold(node.Content[i].Value, key) {
			return i
		}
	}
	return -1
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	i := mappingIndex(node, key)
	if i < 0 {
		return nil
	}
	return node.Content[i+1]
}

func setMappingValue(node *yaml.Node, key string, value *yaml.Node) {
	if i := mappingIndex(node, key); i >= 0 {
		node.Content[i+1] = value
		return
	}
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		value,
	)
}

func removeMappingValue(node *yaml.Node, key string) {
	if i := mappingIndex(node, key); i >= 0 {
		node.Content = append(node.Content[:i], node.Content[i+2:]...)
	}
}
