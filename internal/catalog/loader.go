// Package catalog loads the static quest pool and achievement catalog.
//
// The builtin documents are embedded in the binary. A directory may override
// either document; a missing file falls back to the builtin one.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	QuestsFile       = "quests.yaml"
	AchievementsFile = "achievements.yaml"
)

//go:embed data/*.yaml
var builtinFS embed.FS

type Set struct {
	Quests       QuestPool
	Achievements AchievementCatalog
}

var (
	builtinOnce sync.Once
	builtinSet  Set
	builtinErr  error
)

// Builtin returns the embedded catalogs. They are parsed once.
func Builtin() (Set, error) {
	builtinOnce.Do(func() {
		sub, err := fs.Sub(builtinFS, "data")
		if err != nil {
			builtinErr = err
			return
		}
		builtinSet, builtinErr = loadFS(sub)
	})
	return builtinSet, builtinErr
}

// LoadDir loads catalogs from root, using the builtin document for any file
// that does not exist there.
func LoadDir(root string) (Set, error) {
	base, err := Builtin()
	if err != nil {
		return Set{}, err
	}
	if root == "" {
		return base, nil
	}
	info, err := os.Stat(root)
	if err != nil {
		return Set{}, err
	}
	if !info.IsDir() {
		return Set{}, fmt.Errorf("catalog dir %s is not a directory", root)
	}

	set := base
	dir := os.DirFS(root)
	if pool, err := readQuests(dir); err == nil {
		set.Quests = pool
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Set{}, fmt.Errorf("load %s: %w", filepath.Join(root, QuestsFile), err)
	}
	if cat, err := readAchievements(dir); err == nil {
		set.Achievements = cat
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Set{}, fmt.Errorf("load %s: %w", filepath.Join(root, AchievementsFile), err)
	}
	return set, nil
}

func loadFS(fsys fs.FS) (Set, error) {
	pool, err := readQuests(fsys)
	if err != nil {
		return Set{}, fmt.Errorf("load %s: %w", QuestsFile, err)
	}
	cat, err := readAchievements(fsys)
	if err != nil {
		return Set{}, fmt.Errorf("load %s: %w", AchievementsFile, err)
	}
	return Set{Quests: pool, Achievements: cat}, nil
}

func readQuests(fsys fs.FS) (QuestPool, error) {
	var pool QuestPool
	b, err := fs.ReadFile(fsys, QuestsFile)
	if err != nil {
		return pool, err
	}
	if err := ParseQuests(b, &pool); err != nil {
		return QuestPool{}, err
	}
	return pool, nil
}

func readAchievements(fsys fs.FS) (AchievementCatalog, error) {
	var cat AchievementCatalog
	b, err := fs.ReadFile(fsys, AchievementsFile)
	if err != nil {
		return cat, err
	}
	if err := ParseAchievements(b, &cat); err != nil {
		return AchievementCatalog{}, err
	}
	return cat, nil
}

func ParseQuests(b []byte, out *QuestPool) error {
	if err := yaml.Unmarshal(b, out); err != nil {
		return err
	}
	return out.Validate()
}

func ParseAchievements(b []byte, out *AchievementCatalog) error {
	if err := yaml.Unmarshal(b, out); err != nil {
		return err
	}
	return out.Validate()
}
