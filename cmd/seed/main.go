package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ikkim/must-canteen/internal/app/model"
	"github.com/ikkim/must-canteen/internal/app/repository"
)

// Converts a catalog seed between JSON and XLSX.
//
//	go run cmd/seed/main.go data/catalog.json data/catalog.xlsx
//	go run cmd/seed/main.go data/catalog.xlsx data/catalog.json
func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run cmd/seed/main.go <input.json|input.xlsx> <output.json|output.xlsx>")
	}

	inPath, outPath := os.Args[1], os.Args[2]

	fmt.Printf("Reading catalog: %s\n", inPath)
	stalls, err := repository.LoadCatalogFile(inPath)
	if err != nil {
		log.Fatal("Failed to read catalog:", err)
	}

	dishes, reviews := countCatalog(stalls)
	fmt.Printf("Stalls: %d, dishes: %d, reviews: %d\n", len(stalls), dishes, reviews)

	if _, err := os.Stat(outPath); err == nil {
		fmt.Printf("%s already exists. Overwrite? (yes/no): ", outPath)
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Conversion cancelled.")
			return
		}
	}

	out, err := os.Create(outPath)
	if err != nil {
		log.Fatal("Failed to create output:", err)
	}
	defer out.Close()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".xlsx":
		err = repository.WriteCatalogXLSX(out, stalls)
	case ".json":
		err = repository.WriteCatalogJSON(out, stalls)
	default:
		log.Fatalf("Unsupported output format: %s", filepath.Ext(outPath))
	}
	if err != nil {
		log.Fatal("Failed to write catalog:", err)
	}

	fmt.Printf("Catalog written to %s\n", outPath)
}

func countCatalog(stalls []model.Stall) (dishes, reviews int) {
	for _, stall := range stalls {
		reviews += len(stall.Reviews)
		dishes += len(stall.Menu)
		for _, dish := range stall.Menu {
			reviews += len(dish.Reviews)
		}
	}
	return dishes, reviews
}
