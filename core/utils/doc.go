// Package utils provides small helpers shared by the presence-sync packages,
// such as rendering loosely typed payload values as strings.
package utils
