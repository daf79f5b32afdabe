package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"dreamcatcher/internal/ledger"
	"dreamcatcher/internal/state"
)

// layoutDefaults is the empty value of every persisted key. Import writes
// these for keys a backup does not carry.
var layoutDefaults = map[string]json.RawMessage{
	KeyDreams:               json.RawMessage(`[]`),
	KeyTotems:               json.RawMessage(`[]`),
	KeySymbols:              json.RawMessage(`[]`),
	KeyIncubations:          json.RawMessage(`[]`),
	KeySleep:                json.RawMessage(`[]`),
	KeyReadings:             json.RawMessage(`[]`),
	KeyOdysseys:             json.RawMessage(`[]`),
	KeySeries:               json.RawMessage(`[]`),
	ledger.KeyXP:            json.RawMessage(`0`),
	ledger.KeyUnlocked:      json.RawMessage(`{}`),
	ledger.KeyDailyQuests:   json.RawMessage(`[]`),
	ledger.KeyLastQuestDate: json.RawMessage(`""`),
}

// Export dumps every stored key of the user.
func (a *App) Export(ctx context.Context) (Backup, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	records, err := a.scope.Dump(ctx)
	if err != nil {
		return Backup{}, err
	}
	b := Backup{Version: BackupVersion, User: a.cfg.UserID, ExportedAt: a.now().UTC(), Records: make([]BackupRecord, 0, len(records))}
	for _, rec := range records {
		b.Records = append(b.Records, BackupRecord{Key: rec.Key, SchemaVersion: rec.SchemaVersion, Value: rec.Value})
	}
	a.logger.Info("backup.exported", "user", a.cfg.UserID, "keys", len(b.Records))
	return b, nil
}

// Import replaces every persisted key with the backup's contents in one
// transaction, resyncs the live bindings and rechecks achievements. Keys
// outside the layout are ignored.
func (a *App) Import(ctx context.Context, b Backup) error {
	if b.Version != BackupVersion {
		return fmt.Errorf("%w: backup version %d", ErrInvalidInput, b.Version)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	seen := map[string]bool{}
	records := make([]state.Record, 0, len(layoutDefaults))
	for _, r := range b.Records {
		if _, known := layoutDefaults[r.Key]; !known || seen[r.Key] {
			continue
		}
		if !json.Valid(r.Value) {
			return fmt.Errorf("%w: key %s holds invalid JSON", ErrInvalidInput, r.Key)
		}
		seen[r.Key] = true
		records = append(records, state.Record{Key: r.Key, Value: r.Value, SchemaVersion: r.SchemaVersion})
	}
	for key, def := range layoutDefaults {
		if !seen[key] {
			records = append(records, state.Record{Key: key, Value: def, SchemaVersion: state.CurrentSchemaVersion})
		}
	}
	if err := a.scope.Restore(ctx, records); err != nil {
		return err
	}
	a.logger.Info("backup.imported", "user", a.cfg.UserID, "keys", len(seen))
	if err := a.recheck(ctx, true); err != nil {
		return err
	}
	_, err := a.ledger.EnsureDailyQuests(ctx)
	return err
}

func WriteBackup(w io.Writer, b Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(b)
}

func ReadBackup(r io.Reader) (Backup, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return b, nil
}
