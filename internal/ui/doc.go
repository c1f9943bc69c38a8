// Package ui renders command events and run progress for people reading the console.
package ui
