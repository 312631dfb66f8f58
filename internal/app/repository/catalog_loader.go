package repository

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the XLSX catalog workbook.
const (
	SheetStalls  = "stalls"
	SheetDishes  = "dishes"
	SheetReviews = "reviews"
)

var (
	stallHeaders  = []string{"id", "name", "location", "cuisine_type", "rating", "image", "tags"}
	dishHeaders   = []string{"id", "stall_id", "name", "price", "image", "description", "calories", "rating", "category", "is_popular"}
	reviewHeaders = []string{"id", "target_id", "author_id", "author_name", "appearance", "aroma", "taste", "overall", "comment", "date", "images", "likes"}
)

type catalogFile struct {
	Stalls []model.Stall `json:"stalls"`
}

// LoadCatalogFile reads a .json or .xlsx catalog seed.
func LoadCatalogFile(path string) ([]model.Stall, error) {
	var (
		stalls []model.Stall
		err    error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var f *os.File
		f, err = os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer f.Close()
		stalls, err = LoadCatalogJSON(f)
	case ".xlsx":
		var wb *excelize.File
		wb, err = excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
		}
		defer wb.Close()
		stalls, err = readCatalogWorkbook(wb)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	dishes := 0
	for _, s := range stalls {
		dishes += len(s.Menu)
	}
	logger.Info("Catalog loaded", map[string]interface{}{
		"path":   path,
		"stalls": len(stalls),
		"dishes": dishes,
	})
	return stalls, nil
}

// LoadCatalogJSON decodes {"stalls": [...]}.
func LoadCatalogJSON(r io.Reader) ([]model.Stall, error) {
	var file catalogFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := validateCatalog(file.Stalls); err != nil {
		return nil, err
	}
	return file.Stalls, nil
}

// WriteCatalogJSON encodes stalls in the format LoadCatalogJSON reads.
func WriteCatalogJSON(w io.Writer, stalls []model.Stall) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(catalogFile{Stalls: stalls})
}

// LoadCatalogXLSX reads the stalls, dishes and reviews sheets of a workbook.
func LoadCatalogXLSX(r io.Reader) ([]model.Stall, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer wb.Close()
	return readCatalogWorkbook(wb)
}

func readCatalogWorkbook(wb *excelize.File) ([]model.Stall, error) {
	stallRows, err := sheetRows(wb, SheetStalls)
	if err != nil {
		return nil, err
	}
	dishRows, err := sheetRows(wb, SheetDishes)
	if err != nil {
		return nil, err
	}
	// the reviews sheet is optional
	var reviewRows [][]string
	if idx, _ := wb.GetSheetIndex(SheetReviews); idx >= 0 {
		if reviewRows, err = sheetRows(wb, SheetReviews); err != nil {
			return nil, err
		}
	}

	var stalls []model.Stall
	stallIndex := make(map[string]int)
	for i, row := range stallRows {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		rating, err := parseFloatCell(row, 4)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetStalls, i+2, err)
		}
		stallIndex[id] = len(stalls)
		stalls = append(stalls, model.Stall{
			ID:          id,
			Name:        cell(row, 1),
			Location:    cell(row, 2),
			CuisineType: cell(row, 3),
			Rating:      rating,
			ImageRef:    cell(row, 5),
			Tags:        splitList(cell(row, 6)),
			Menu:        []model.Dish{},
			Reviews:     []model.Review{},
		})
	}

	// dish id -> (stall index, menu index)
	type dishPos struct{ stall, dish int }
	dishIndex := make(map[string]dishPos)
	for i, row := range dishRows {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		si, ok := stallIndex[cell(row, 1)]
		if !ok {
			return nil, fmt.Errorf("%s row %d: unknown stall %q", SheetDishes, i+2, cell(row, 1))
		}
		price, err := parseFloatCell(row, 3)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetDishes, i+2, err)
		}
		calories, err := parseIntCell(row, 6)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetDishes, i+2, err)
		}
		rating, err := parseFloatCell(row, 7)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetDishes, i+2, err)
		}
		popular, _ := strconv.ParseBool(cell(row, 9))

		dishIndex[id] = dishPos{stall: si, dish: len(stalls[si].Menu)}
		stalls[si].Menu = append(stalls[si].Menu, model.Dish{
			ID:          id,
			Name:        cell(row, 2),
			Price:       price,
			ImageRef:    cell(row, 4),
			Description: cell(row, 5),
			Calories:    calories,
			Rating:      rating,
			Category:    cell(row, 8),
			IsPopular:   popular,
			Reviews:     []model.Review{},
		})
	}

	for i, row := range reviewRows {
		id := cell(row, 0)
		if id == "" {
			continue
		}
		review, err := parseReviewRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetReviews, i+2, err)
		}
		target := cell(row, 1)
		if si, ok := stallIndex[target]; ok {
			stalls[si].Reviews = append(stalls[si].Reviews, review)
			continue
		}
		if pos, ok := dishIndex[target]; ok {
			d := &stalls[pos.stall].Menu[pos.dish]
			d.Reviews = append(d.Reviews, review)
			continue
		}
		return nil, fmt.Errorf("%s row %d: unknown target %q", SheetReviews, i+2, target)
	}

	if err := validateCatalog(stalls); err != nil {
		return nil, err
	}
	return stalls, nil
}

func parseReviewRow(row []string) (model.Review, error) {
	var dims [3]int
	for k := range dims {
		v, err := parseIntCell(row, 4+k)
		if err != nil {
			return model.Review{}, err
		}
		dims[k] = v
	}
	d := model.Dimensions{Appearance: dims[0], Aroma: dims[1], Taste: dims[2]}

	overall, err := parseIntCell(row, 7)
	if err != nil {
		return model.Review{}, err
	}
	if overall == 0 {
		overall = d.Overall()
	}
	likes, err := parseIntCell(row, 11)
	if err != nil {
		return model.Review{}, err
	}
	var date model.Date
	if raw := cell(row, 9); raw != "" {
		if date, err = model.ParseDate(raw); err != nil {
			return model.Review{}, fmt.Errorf("invalid date %q", raw)
		}
	}

	return model.Review{
		ID:            cell(row, 0),
		AuthorID:      cell(row, 2),
		AuthorName:    cell(row, 3),
		OverallRating: overall,
		Dimensions:    d,
		Comment:       cell(row, 8),
		SubmittedAt:   date,
		Images:        splitList(cell(row, 10)),
		LikeCount:     likes,
	}, nil
}

// WriteCatalogXLSX writes stalls as a workbook that LoadCatalogXLSX reads back.
func WriteCatalogXLSX(w io.Writer, stalls []model.Stall) error {
	wb := excelize.NewFile()
	defer wb.Close()

	for _, name := range []string{SheetStalls, SheetDishes, SheetReviews} {
		if _, err := wb.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	if err := wb.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	stallOut := [][]interface{}{toRow(stallHeaders)}
	dishOut := [][]interface{}{toRow(dishHeaders)}
	reviewOut := [][]interface{}{toRow(reviewHeaders)}
	for _, s := range stalls {
		stallOut = append(stallOut, []interface{}{
			s.ID, s.Name, s.Location, s.CuisineType, s.Rating, s.ImageRef, strings.Join(s.Tags, ","),
		})
		reviewOut = appendReviewRows(reviewOut, s.ID, s.Reviews)
		for _, d := range s.Menu {
			dishOut = append(dishOut, []interface{}{
				d.ID, s.ID, d.Name, d.Price, d.ImageRef, d.Description, d.Calories, d.Rating, d.Category, d.IsPopular,
			})
			reviewOut = appendReviewRows(reviewOut, d.ID, d.Reviews)
		}
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetStalls:  stallOut,
		SheetDishes:  dishOut,
		SheetReviews: reviewOut,
	} {
		for i, row := range rows {
			axis, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return err
			}
			row := row
			if err := wb.SetSheetRow(sheet, axis, &row); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
			}
		}
	}

	_, err := wb.WriteTo(w)
	return err
}

func appendReviewRows(rows [][]interface{}, targetID string, reviews []model.Review) [][]interface{} {
	for _, r := range reviews {
		rows = append(rows, []interface{}{
			r.ID, targetID, r.AuthorID, r.AuthorName,
			r.Dimensions.Appearance, r.Dimensions.Aroma, r.Dimensions.Taste, r.OverallRating,
			r.Comment, r.SubmittedAt.String(), strings.Join(r.Images, ","), r.LikeCount,
		})
	}
	return rows
}

// validateCatalog rejects id collisions between stalls and dishes, since review targets
// are resolved by id alone.
func validateCatalog(stalls []model.Stall) error {
	seen := make(map[string]bool)
	for _, s := range stalls {
		if seen[s.ID] {
			return fmt.Errorf("duplicate catalog id %q", s.ID)
		}
		seen[s.ID] = true
		for _, d := range s.Menu {
			if seen[d.ID] {
				return fmt.Errorf("duplicate catalog id %q", d.ID)
			}
			seen[d.ID] = true
		}
	}
	return nil
}

func sheetRows(wb *excelize.File, sheet string) ([][]string, error) {
	rows, err := wb.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	// first row is the header
	return rows[1:], nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloatCell(row []string, i int) (float64, error) {
	raw := cell(row, i)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return v, nil
}

func parseIntCell(row []string, i int) (int, error) {
	raw := cell(row, i)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}
