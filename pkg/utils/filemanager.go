// =============================================================================
// Rent Receipt Generator - File Manager Utility
// =============================================================================
//
// This module provides the file helpers shared by the generator:
//   - Directory management
//   - Input archival
//   - Error log generation for rows left out of a run
//   - File naming utilities
//
// OUTPUT LAYOUT:
//   - Receipts are written flat into the output directory
//   - The error log of a run sits next to the receipts it explains
//   - Re-running a period overwrites receipts of the same name
//
// ARCHIVAL STRATEGY:
//   - The input table is copied, not moved, since it is a working file
//   - Copies go to date-based subdirectories: archive/2024/01/15/enero.xlsx
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the directories a run writes into.
type FileManager struct {
	// OutputDir is the directory where receipts are placed.
	OutputDir string

	// ArchiveDir optionally receives a copy of the input table once its
	// receipts are written. Empty disables archiving.
	ArchiveDir string
}

// NewFileManager creates a new FileManager for the output directory.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
// Calling it again is a no-op.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// OutputPath joins a file name onto the output directory.
func (fm *FileManager) OutputPath(name string) string {
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile copies an input file into a dated subdirectory of the
// archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//   - at: The time that selects the subdirectory.
//
// RETURNS:
//   - The path to the archived copy, or "" when archiving is disabled.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string, at time.Time) (string, error) {
	if fm.ArchiveDir == "" {
		return "", nil
	}

	archivePath := filepath.Join(
		fm.ArchiveDir,
		fmt.Sprintf("%d", at.Year()),
		fmt.Sprintf("%02d", at.Month()),
		fmt.Sprintf("%02d", at.Day()),
		filepath.Base(filePath),
	)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents one problem found in a row that was left out.
type ErrorLogEntry struct {
	Timestamp time.Time
	FileName  string
	Severity  string
	Message   string
	RowNumber int
	Apartment string
	FieldName string
	Value     string
	Rule      string
}

// WriteErrorLog writes error entries to a log file in outputDir.
//
// PARAMETERS:
//   - entries: The error entries to write.
//   - outputDir: The directory to write the log file.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to log.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := time.Now()
	logFileName := fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405"))
	logPath := filepath.Join(outputDir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Rent Receipt Generator - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"Rows Affected: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"),
		len(entries),
		countRows(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n", i+1)
		if !entry.Timestamp.IsZero() {
			fmt.Fprintf(writer, "  Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		}
		if entry.FileName != "" {
			fmt.Fprintf(writer, "  File:       %s\n", entry.FileName)
		}
		if entry.Severity != "" {
			fmt.Fprintf(writer, "  Severity:   %s\n", entry.Severity)
		}
		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row Number: %d\n", entry.RowNumber)
		}
		if entry.Apartment != "" {
			fmt.Fprintf(writer, "  Apartment:  %s\n", entry.Apartment)
		}
		if entry.FieldName != "" {
			fmt.Fprintf(writer, "  Field:      %s\n", entry.FieldName)
		}
		if entry.Value != "" {
			fmt.Fprintf(writer, "  Value:      %s\n", entry.Value)
		}
		if entry.Rule != "" {
			fmt.Fprintf(writer, "  Rule:       %s\n", entry.Rule)
		}
		fmt.Fprintf(writer, "  Message:    %s\n\n", entry.Message)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}

	return logPath, nil
}

// countRows returns the number of distinct rows among the entries.
func countRows(entries []ErrorLogEntry) int {
	seen := make(map[int]bool)
	for _, e := range entries {
		seen[e.RowNumber] = true
	}
	return len(seen)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// SafeFileComponent replaces path separators so s can be used as part of a
// single file name.
func SafeFileComponent(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(s)
}
