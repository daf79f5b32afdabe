package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogsLoad(t *testing.T) {
	set, err := Builtin()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(set.Quests.Quests), 3)
	require.NotEmpty(t, set.Achievements.Achievements)

	assert.Equal(t, "high_clarity", set.Quests.Quests[0].ID)
	first := set.Achievements.Achievements[0]
	assert.Equal(t, "first_steps", first.ID)
	assert.Equal(t, "First Steps", first.Name)
	assert.Equal(t, Rule{Type: "collection_min", Collection: "dreams", Min: 1}, first.Rule)
}

func TestLoadDirOverridesQuestsOnly(t *testing.T) {
	dir := t.TempDir()
	doc := `kind: quest_pool
schema_version: 1
quests:
  - id: only_quest
    title: Only Quest
    xp_reward: 5
    rule: {type: action, action: NEW_DREAM}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, QuestsFile), []byte(doc), 0o644))

	set, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, set.Quests.Quests, 1)
	assert.Equal(t, "only_quest", set.Quests.Quests[0].ID)

	builtin, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, builtin.Achievements, set.Achievements)
}

func TestLoadDirRejectsInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, AchievementsFile), []byte("kind: achievement_catalog\nschema_version: 2\nachievements: []\n"), 0o644))
	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestLoadDirMissingRoot(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
