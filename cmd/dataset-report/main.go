// dataset-report renders an HTML overview of the unified store: one bar
// chart of per-dataset row counts plus a top-categories chart per
// dataset with imported data.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/xhpmoonx/Computer-Vision-Annotation-Mgmt-System/internal/db"
)

func main() {
	var dbPath string
	var outPath string
	var topN int
	flag.StringVar(&dbPath, "db", "cv_datasets.db", "path to sqlite store")
	flag.StringVar(&outPath, "out", "dataset-report.html", "output HTML file")
	flag.IntVar(&topN, "top", 15, "number of top categories per dataset")
	flag.Parse()

	database, err := db.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer database.Close()

	stats, err := database.StatsByDataset()
	if err != nil {
		log.Fatalf("failed to collect stats: %v", err)
	}
	if len(stats) == 0 {
		log.Fatalf("store has no Dataset rows (run init-db first)")
	}

	page := components.NewPage()
	page.AddCharts(overviewChart(stats))

	for _, s := range stats {
		if s.Annotations == 0 {
			continue
		}
		dataset, err := database.DatasetByName(s.Dataset)
		if err != nil {
			log.Fatalf("failed to resolve dataset %s: %v", s.Dataset, err)
		}
		counts, err := database.TopCategories(dataset.ID, topN)
		if err != nil {
			log.Fatalf("failed to collect top categories for %s: %v", s.Dataset, err)
		}
		page.AddCharts(topCategoriesChart(s.Dataset, counts))
	}

	f, err := os.Create(outPath)
	if err != nil {
		log.Fatalf("failed to create %s: %v", outPath, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		log.Fatalf("failed to render report: %v", err)
	}
	fmt.Printf("Wrote report to %s\n", outPath)
}

func overviewChart(stats []db.DatasetStats) *charts.Bar {
	names := make([]string, 0, len(stats))
	images := make([]opts.BarData, 0, len(stats))
	categories := make([]opts.BarData, 0, len(stats))
	annotations := make([]opts.BarData, 0, len(stats))
	for _, s := range stats {
		names = append(names, s.Dataset)
		images = append(images, opts.BarData{Value: s.Images})
		categories = append(categories, opts.BarData{Value: s.Categories})
		annotations = append(annotations, opts.BarData{Value: s.Annotations})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Unified Annotation Store", Width: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Rows per dataset"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("images", images).
		AddSeries("categories", categories).
		AddSeries("annotations", annotations)
	return bar
}

func topCategoriesChart(dataset string, counts []db.CategoryCount) *charts.Bar {
	names := make([]string, 0, len(counts))
	data := make([]opts.BarData, 0, len(counts))
	for _, c := range counts {
		names = append(names, c.Name)
		data = append(data, opts.BarData{Value: c.Annotations})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s: annotations per category", dataset)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Rotate: 45}}),
	)
	bar.SetXAxis(names).
		AddSeries("annotations", data, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}
