package file

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/relloyd/snowmerge/logger"
)

var reGzipExtension = regexp.MustCompile(`^(.*?)(\.*)(?i)(gzip|gz){0,}$`) // remove multiple leading '.' and trailing (case insensitive) "gz|gzip"

// CSVFileOutput writes CSV records to a series of OS files, rotating to a new file
// after a number of rows or bytes.
type CSVFileOutput struct {
	csvWriter         *csv.Writer
	log               logger.Logger
	directory         string
	ownsDirectory     bool // true if we created the directory in OS temp space
	prefix            string
	extension         string
	headerRecord      []string
	currentSuffixID   int
	currentName       string
	file              *os.File
	gzWriter          *gzip.Writer
	fWriter           *bufio.Writer
	useGzip           bool
	maxFileRows       int
	currentRowCount   int
	totalRowCount     int
	maxFileBytes      int
	currentBytesCount int
	needNewCSVFile    bool
	ListOfOutputFiles []string
}

// NewCSVFileOutput creates a new CSV file writer. Supply a valid directory or empty string to use a new directory in OS temp space.
// Set maxFileRows to the number of rows you want in each CSV file (excluding the header) or 0 to only generate one file.
// Set maxFileBytes to the approx number of bytes you want in each CSV file; this is only checked per row written
// and causes each row to be flushed, which is slower.
// Setting useGzip will use gzip compression and make the extension end with '.gz'.
func NewCSVFileOutput(log logger.Logger, outputDirectory string, fileNamePrefix string, fileNameExtension string, maxFileRows int, maxFileBytes int, useGzip bool) (*CSVFileOutput, error) {
	f := &CSVFileOutput{
		log:            log,
		directory:      outputDirectory,
		prefix:         fileNamePrefix,
		extension:      fileNameExtension,
		maxFileRows:    maxFileRows,
		maxFileBytes:   maxFileBytes,
		useGzip:        useGzip,
		needNewCSVFile: true,
	}
	if f.directory == "" { // if we need a temp directory...
		var err error
		f.directory, err = os.MkdirTemp("", "csv-output-")
		if err != nil {
			return nil, fmt.Errorf("error creating temp directory for CSV files: %w", err)
		}
		f.ownsDirectory = true
	}
	if useGzip { // if we should use gzip...
		f.extension = reGzipExtension.ReplaceAllString(f.extension, "$1.gz")
	}
	log.Debug("CSVFileOutput file prefix=", f.prefix, "; extension=", f.extension, "; maxFileRows=", f.maxFileRows, "; maxFileBytes=", f.maxFileBytes, "; useGzip=", f.useGzip)
	return f, nil
}

// Write implements io.Writer for the csv.Writer and keeps a count of the bytes written to the current file.
// It signals that we need to rotate the CSV file if f.maxFileBytes > 0.
func (f *CSVFileOutput) Write(p []byte) (n int, err error) {
	if f.useGzip { // if we should write to a gzip file...
		n, err = f.fWriter.Write(p)
	} else {
		n, err = f.file.Write(p)
	}
	f.currentBytesCount += n
	if rotateCheck(f.maxFileBytes, f.currentBytesCount) {
		f.needNewCSVFile = true
	}
	return n, err
}

// SetHeader will store the supplied record for output at the top of each created CSV file.
func (f *CSVFileOutput) SetHeader(record []string) {
	f.headerRecord = record
}

// WriteToCSV writes record to the current CSV file.
// It returns the new file name if a new file was created else the empty string.
func (f *CSVFileOutput) WriteToCSV(record []string) (fileName string, err error) {
	if f.needNewCSVFile {
		if err = f.closeCurrentFile(); err != nil {
			return "", err
		}
		if err = f.createNewCSVWriter(); err != nil {
			return "", err
		}
		fileName = f.currentName
		if f.headerRecord != nil { // if we should write a header row...
			if err = f.csvWriter.Write(f.headerRecord); err != nil {
				return "", fmt.Errorf("unable to write header to CSV file %v: %w", f.currentName, err)
			}
		}
	}
	if err = f.csvWriter.Write(record); err != nil {
		return "", fmt.Errorf("unable to write to CSV file %v: %w", f.currentName, err)
	}
	if f.maxFileBytes > 0 { // if we are checking file size limits...
		// Flush each line so we can accurately check bytes written.
		// This causes f.Write() to be called, which maintains the count.
		f.csvWriter.Flush()
		if err = f.csvWriter.Error(); err != nil {
			return "", err
		}
	}
	// Count rows and signal that we need a new file if we are required to rotate the output file.
	f.currentRowCount++
	f.totalRowCount++
	if rotateCheck(f.maxFileRows, f.currentRowCount) {
		f.needNewCSVFile = true
	}
	return
}

// TotalRows returns the number of records written across all files, excluding headers.
func (f *CSVFileOutput) TotalRows() int {
	return f.totalRowCount
}

func rotateCheck(maxCount int, currentCount int) bool {
	return maxCount > 0 && currentCount >= maxCount
}

// Close flushes the CSV writer and closes the current OS file.
// The files remain on disk until Remove is called.
func (f *CSVFileOutput) Close() error {
	return f.closeCurrentFile()
}

// Remove deletes all files written and the directory if it was created in OS temp space.
func (f *CSVFileOutput) Remove() error {
	var firstErr error
	for _, name := range f.ListOfOutputFiles {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	if f.ownsDirectory {
		if err := os.RemoveAll(f.directory); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// closeCurrentFile will flush the CSV writer and close the OS file.
// It will flag that a new file is required at next write time.
func (f *CSVFileOutput) closeCurrentFile() error {
	f.needNewCSVFile = true
	f.currentRowCount = 0
	f.currentBytesCount = 0
	if f.file == nil { // if there is no file open...
		return nil
	}
	defer func() {
		f.file = nil
		f.csvWriter = nil
	}()
	f.csvWriter.Flush()
	if err := f.csvWriter.Error(); err != nil {
		_ = f.file.Close()
		return fmt.Errorf("unable to flush CSV file %v: %w", f.currentName, err)
	}
	if f.useGzip { // if we should flush the bufio writer and close the gzip first...
		if err := f.fWriter.Flush(); err != nil {
			_ = f.file.Close()
			return err
		}
		if err := f.gzWriter.Close(); err != nil {
			_ = f.file.Close()
			return err
		}
	}
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("unable to close OS file %v: %w", f.currentName, err)
	}
	return nil
}

func (f *CSVFileOutput) createNewCSVWriter() error {
	f.getNextFileName()
	f.log.Debug("Creating new CSV file '", f.currentName, "'")
	var err error
	if f.file, err = os.Create(f.currentName); err != nil {
		return fmt.Errorf("unable to create OS file with name %v: %w", f.currentName, err)
	}
	f.ListOfOutputFiles = append(f.ListOfOutputFiles, f.currentName)
	if f.useGzip { // if should use gzip...
		f.gzWriter = gzip.NewWriter(f.file)
		f.fWriter = bufio.NewWriter(f.gzWriter) // now we must Write() to this instead of the os file.
	}
	f.csvWriter = csv.NewWriter(f)
	f.needNewCSVFile = false
	return nil
}

// getNextFileName generates a new file name in currentName.
func (f *CSVFileOutput) getNextFileName() {
	f.currentSuffixID++
	f.currentName = filepath.Join(f.directory, fmt.Sprintf("%v_%06d.%v", f.prefix, f.currentSuffixID, f.extension))
}
