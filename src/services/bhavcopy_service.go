package services

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/username/investview/backend/src/config"
	"github.com/username/investview/backend/src/logger"
)

// NSE serves the archive only to clients that look like browsers and keep
// cookies between redirects.
const bhavcopyUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

type nseBhavcopyService struct {
	httpClient *http.Client
}

func NewBhavcopyService() (BhavcopyService, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("error creating cookie jar: %w", err)
	}
	return &nseBhavcopyService{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// FetchBhavcopy downloads the NSE end-of-day equity archive for the given
// date and returns the EQ/BE series rows. The archive is a zip containing a
// single CSV named cmDDMMMYYYYbhav.csv.
func (s *nseBhavcopyService) FetchBhavcopy(date time.Time) ([]BhavcopyRecord, error) {
	monthToken := strings.ToUpper(date.Format("Jan"))
	fileName := fmt.Sprintf("cm%02d%s%dbhav.csv", date.Day(), monthToken, date.Year())
	url := fmt.Sprintf("%s/%d/%s/%s.zip", config.Cfg.BhavcopyBaseURL, date.Year(), monthToken, fileName)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building bhavcopy request: %w", err)
	}
	req.Header.Set("User-Agent", bhavcopyUserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading bhavcopy for %s: %w", date.Format("2006-01-02"), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no bhavcopy published for %s (weekend or market holiday?)", date.Format("2006-01-02"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bhavcopy download for %s returned status %d", date.Format("2006-01-02"), resp.StatusCode)
	}

	zipData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading bhavcopy archive: %w", err)
	}

	csvData, err := extractBhavcopyCSV(zipData, fileName)
	if err != nil {
		return nil, err
	}

	records, err := parseBhavcopyCSV(csvData)
	if err != nil {
		return nil, err
	}

	logger.L.Info("Fetched bhavcopy", "date", date.Format("2006-01-02"), "records", len(records))
	return records, nil
}

func extractBhavcopyCSV(zipData []byte, wantName string) ([]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, fmt.Errorf("error opening bhavcopy zip: %w", err)
	}

	for _, file := range zipReader.File {
		if !strings.EqualFold(file.Name, wantName) && !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("error opening %s inside archive: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("error reading %s inside archive: %w", file.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("bhavcopy archive does not contain a CSV file")
}

func parseBhavcopyCSV(csvData []byte) ([]BhavcopyRecord, error) {
	reader := csv.NewReader(bytes.NewReader(csvData))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading bhavcopy header: %w", err)
	}

	colIndex := make(map[string]int, len(header))
	for i, name := range header {
		colIndex[strings.TrimSpace(strings.ToUpper(name))] = i
	}
	for _, required := range []string{"SYMBOL", "SERIES", "OPEN", "HIGH", "LOW", "CLOSE", "LAST", "PREVCLOSE", "TOTTRDQTY", "TOTTRDVAL", "ISIN"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("bhavcopy CSV missing expected column %s", required)
		}
	}

	var records []BhavcopyRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading bhavcopy row: %w", err)
		}

		// FieldsPerRecord is -1 to tolerate trailing-column drift between
		// archive vintages, so a truncated row must be skipped here rather
		// than indexed out of range.
		if len(row) < len(header) {
			continue
		}

		series := strings.TrimSpace(row[colIndex["SERIES"]])
		if series != "EQ" && series != "BE" {
			continue
		}

		record := BhavcopyRecord{
			Symbol:      strings.TrimSpace(row[colIndex["SYMBOL"]]),
			Series:      series,
			Open:        bhavFloat(row, colIndex, "OPEN"),
			High:        bhavFloat(row, colIndex, "HIGH"),
			Low:         bhavFloat(row, colIndex, "LOW"),
			Close:       bhavFloat(row, colIndex, "CLOSE"),
			Last:        bhavFloat(row, colIndex, "LAST"),
			PrevClose:   bhavFloat(row, colIndex, "PREVCLOSE"),
			TradedQty:   bhavFloat(row, colIndex, "TOTTRDQTY"),
			TradedValue: bhavFloat(row, colIndex, "TOTTRDVAL"),
			ISIN:        strings.TrimSpace(row[colIndex["ISIN"]]),
		}
		records = append(records, record)
	}
	return records, nil
}

func bhavFloat(row []string, colIndex map[string]int, name string) float64 {
	idx := colIndex[name]
	if idx >= len(row) {
		return 0
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0
	}
	return value
}
