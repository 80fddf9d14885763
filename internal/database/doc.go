// Package database provides the SQLite note store.
//
// The store is split the same way the tables are: notes/ holds notes and
// collections, tags/ holds tags and the note_tags join table. NoteStore puts
// both behind the interface the exporter writes to.
//
// # Usage
//
//	db, err := database.NewDatabase("./notes.db")
//	store := db.NoteStore()
package database
