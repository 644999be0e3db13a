package index

import (
	"log/slog"
	"time"

	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/render"
)

// Sync brings the index up to date with a loaded corpus:
//   - new/changed notes (by source checksum) are upserted with their links
//   - notes no longer in the corpus are deleted
//   - links of unchanged notes are rewritten, since targets may have moved
func Sync(db *DB, c *corpus.Corpus, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	var upserted, removed int
	for _, n := range c.Notes.Sorted() {
		src := c.Sources[n.ID]
		if src.Checksum != "" && checksums[n.ID] == src.Checksum {
			if err := db.replaceLinks(n.ID, c.Links(n)); err != nil {
				logger.Warn("sync: links failed", slog.String("id", n.ID), slog.String("error", err.Error()))
			}
			continue
		}
		row := NoteRow{
			ID:        n.ID,
			Path:      src.Path,
			Title:     n.Title(),
			Checksum:  src.Checksum,
			Tags:      n.Tags(),
			Created:   n.Created(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := db.UpsertNote(row, render.PlainText(n.Children), c.Links(n)); err != nil {
			logger.Warn("sync: index failed", slog.String("id", n.ID), slog.String("error", err.Error()))
			continue
		}
		upserted++
		logger.Debug("sync: indexed", slog.String("id", n.ID), slog.String("path", src.Path))
	}

	for id := range checksums {
		if _, ok := c.Notes[id]; ok {
			continue
		}
		if err := db.DeleteNote(id); err != nil {
			logger.Warn("sync: delete failed", slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		removed++
		logger.Debug("sync: removed stale", slog.String("id", id))
	}

	logger.Info("sync: done", slog.Int("upserted", upserted), slog.Int("removed", removed))
	return nil
}

// replaceLinks rewrites the outgoing links of source.
func (db *DB) replaceLinks(source string, links []string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`DELETE FROM links WHERE source = ?`, source); err != nil {
		return err
	}
	for _, target := range links {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`, source, target); err != nil {
			return err
		}
	}
	return tx.Commit()
}
