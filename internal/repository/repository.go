// Package repository handles all interactions with the database.
//
// Queries are built with squirrel and run through pgx. Repositories do no
// logging, retrying or error translation: that belongs to the layers above.
package repository
