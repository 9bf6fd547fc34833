package sync

import (
	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// Local and remote schemas differ in field naming and in what they can
// express, so translation is a pair of explicit, total mapping
// functions per entity. Nothing here is optional-by-convention: every
// field is either carried, defaulted, or deliberately dropped with a
// note.

// taskToRow translates a local task to the remote schema, attaching
// the owning user. The local ID never crosses the boundary.
func taskToRow(t *model.Task, owner string) remote.TaskRow {
	return remote.TaskRow{
		UserID:               owner,
		Date:                 t.Date,
		Name:                 t.Name,
		Status:               t.Status,
		Priority:             t.Priority,
		TargetMinutes:        t.TargetMinutes,
		Description:          t.Description,
		CompletedDescription: t.CompletedDescription,
		Progress:             t.Progress,
		Repeating:            t.Repeating,
		TemplateID:           t.TemplateID,
		AchieverStreak:       t.AchieverStreak,
		FighterStreak:        t.FighterStreak,
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}

// taskFromRow translates a remote task into a local record already
// confirmed present remotely, so its state is synced.
func taskFromRow(row remote.TaskRow) *model.Task {
	t := &model.Task{
		Date:                 row.Date,
		Name:                 row.Name,
		Status:               row.Status,
		Priority:             row.Priority,
		TargetMinutes:        row.TargetMinutes,
		Description:          row.Description,
		CompletedDescription: row.CompletedDescription,
		Progress:             row.Progress,
		Repeating:            row.Repeating,
		TemplateID:           row.TemplateID,
		AchieverStreak:       row.AchieverStreak,
		FighterStreak:        row.FighterStreak,
		OwnerID:              row.UserID,
		SyncState:            model.StateSynced,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
	t.SetDefaults()
	return t
}

// sessionToRow translates a local session to the remote schema.
//
// The local TaskID link is dropped: task identifiers don't correspond
// across the boundary and the remote schema has no column for it.
// Sessions are matched to tasks by name downstream. Documented
// limitation, not an oversight.
func sessionToRow(s *model.Session, owner string) remote.SessionRow {
	return remote.SessionRow{
		UserID:    owner,
		Date:      s.Date,
		StartTime: s.Start,
		EndTime:   s.End,
		Category:  s.Category,
		Name:      s.CustomName,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// sessionFromRow translates a remote session into a synced local record.
// TaskID stays zero; the link cannot be reconstructed from remote data.
func sessionFromRow(row remote.SessionRow) *model.Session {
	s := &model.Session{
		Date:       row.Date,
		Start:      row.StartTime,
		End:        row.EndTime,
		Category:   row.Category,
		CustomName: row.Name,
		OwnerID:    row.UserID,
		SyncState:  model.StateSynced,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	s.SetDefaults()
	return s
}

// sleepToRow translates a local sleep entry to the remote schema.
func sleepToRow(e *model.SleepEntry, owner string) remote.SleepRow {
	return remote.SleepRow{
		UserID:    owner,
		Date:      e.Date,
		WakeTime:  e.WakeTime,
		BedTime:   e.BedTime,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// sleepFromRow translates a remote sleep entry into a synced local record.
func sleepFromRow(row remote.SleepRow) *model.SleepEntry {
	e := &model.SleepEntry{
		Date:      row.Date,
		WakeTime:  row.WakeTime,
		BedTime:   row.BedTime,
		OwnerID:   row.UserID,
		SyncState: model.StateSynced,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	e.SetDefaults()
	return e
}
