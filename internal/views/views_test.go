package views

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/registry"
)

func load(t *testing.T, files map[string]string) *registry.Registry {
	t.Helper()
	l := loader.New(catalog.Default())
	var ds []*dataset.Dataset
	for name, body := range files {
		d, err := l.LoadOne(name, strings.NewReader(body))
		require.NoError(t, err)
		ds = append(ds, d)
	}
	reg := registry.New(nil)
	reg.Merge(ds)
	return reg
}

func metric(t *testing.T, v View, label string) Metric {
	t.Helper()
	for _, m := range v.Metrics {
		if m.Label == label {
			return m
		}
	}
	t.Fatalf("metric %q not found in %+v", label, v.Metrics)
	return Metric{}
}

func panel(v View, title string) (Panel, bool) {
	for _, p := range v.Panels {
		if p.Title == title {
			return p, true
		}
	}
	return Panel{}, false
}

func TestBuild_EmptyDomain(t *testing.T) {
	v, err := Build(registry.New(nil), catalog.Default(), "hr", Options{})
	require.NoError(t, err)

	assert.True(t, v.Empty)
	assert.Equal(t, "hr", v.Key)
	assert.Empty(t, v.Metrics)
	assert.Empty(t, v.Panels)
	assert.Equal(t, 0, v.Summary.LoadedCount)
}

func TestBuild_UnknownDomain(t *testing.T) {
	_, err := Build(registry.New(nil), catalog.Default(), "astrology", Options{})
	require.ErrorIs(t, err, aggregate.ErrUnknownDomain)
}

func TestBuild_Workforce(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-HR-21_employees.csv": "Emp_Gender,Emp_Nationality,Emp_Institution_Name,Emp_Position\n" +
			"M,AE,U1,Professor\n" +
			"F,IN,U1,Lecturer\n" +
			"M,AE,U2,Professor\n" +
			"F,EG,U1,Professor\n",
	})

	v, err := Build(reg, catalog.Default(), "hr", Options{})
	require.NoError(t, err)
	require.False(t, v.Empty)

	assert.Equal(t, Metric{Label: "Total Employees", Value: "4"}, metric(t, v, "Total Employees"))
	assert.Equal(t, Metric{Label: "Male", Value: "2", Delta: "50.0%"}, metric(t, v, "Male"))
	assert.Equal(t, "2", metric(t, v, "UAE Nationals").Value)
	assert.Equal(t, "2", metric(t, v, "Expatriates").Value)

	p, ok := panel(v, "Employees by Institution")
	require.True(t, ok)
	assert.Equal(t, "CHEDS-HR-21", p.ProductID)
	assert.Equal(t, "Workforce", p.Section)
	assert.Equal(t, []Point{{"U1", 3}, {"U2", 1}}, p.Points)

	p, ok = panel(v, "Employees by Gender")
	require.True(t, ok)
	assert.Equal(t, KindPie, p.Kind)
	assert.Equal(t, []Point{{"M", 2}, {"F", 2}}, p.Points)
}

func TestBuild_MissingColumnsOmitPanels(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-HR-21_employees.csv": "Emp_Gender\nM\nF\n",
	})

	v, err := Build(reg, catalog.Default(), "hr", Options{})
	require.NoError(t, err)

	_, ok := panel(v, "Employees by Institution")
	assert.False(t, ok)
	_, ok = panel(v, "Employees by Gender")
	assert.True(t, ok)
	for _, m := range v.Metrics {
		assert.NotEqual(t, "UAE Nationals", m.Label)
	}
}

func TestBuild_LearningConversionRates(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-LT-01_applicants.csv": "App_Institution_Name,App_Applicants\nU1,8\nU2,2\n",
		"CHEDS-LT-03_enrolment.csv":  "Enroll_Gender\nM\nF\nM\nF\nM\n",
		"CHEDS-LT-09_graduates.csv":  "Grad_GPA_Cumulative\n3.1\n3.9\n",
		"CHEDS-LT-11_courses.csv":    "Course\nA\nB\n",
	})

	v, err := Build(reg, catalog.Default(), "Learning and Teaching", Options{})
	require.NoError(t, err)

	assert.Equal(t, "10", metric(t, v, "Total Applicants").Value)
	assert.Equal(t, "5", metric(t, v, "Enrolled Students").Value)
	assert.Equal(t, "50.0%", metric(t, v, "Acceptance Rate").Value)
	assert.Equal(t, "40.0%", metric(t, v, "Graduation Rate").Value)
	assert.Equal(t, "2.5", metric(t, v, "Students per Course").Value)
	assert.Equal(t, "0", metric(t, v, "Programs").Value)

	p, ok := panel(v, "Applicants by Institution")
	require.True(t, ok)
	assert.Equal(t, []Point{{"U1", 8}, {"U2", 2}}, p.Points)

	p, ok = panel(v, "GPA Distribution")
	require.True(t, ok)
	assert.Equal(t, KindHist, p.Kind)
	var n float64
	for _, pt := range p.Points {
		n += pt.Value
	}
	assert.Equal(t, 2.0, n)
}

func TestBuild_LearningApplicantsFallBackToRows(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-LT-01_applicants.csv": "App_Institution_Name\nU1\nU2\nU3\n",
	})

	v, err := Build(reg, catalog.Default(), "lt", Options{})
	require.NoError(t, err)

	assert.Equal(t, "3", metric(t, v, "Total Applicants").Value)
	for _, m := range v.Metrics {
		assert.NotEqual(t, "Acceptance Rate", m.Label, "no enrollment loaded")
	}
}

func TestBuild_Financial(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-FIN-25_finance.csv": "Finance_Institution_Name,Finance_Capex_Academic,Finance_Capex_Infra," +
			"Finance_Capex_Indirect_Research_Percent,Finance_Total_Revenue,Finance_Total_Expenses,Finance_Year\n" +
			"U1,100,0,50,1000,800,2023\n" +
			"U2,200,10,50,500,700,2022\n",
	})

	v, err := Build(reg, catalog.Default(), "fin", Options{})
	require.NoError(t, err)

	assert.Equal(t, "AED 310", metric(t, v, "Total CAPEX").Value)
	assert.Equal(t, "AED 0", metric(t, v, "Total OPEX").Value)
	assert.Equal(t, "AED 1,500", metric(t, v, "Total Revenue").Value)

	p, ok := panel(v, "CAPEX Breakdown")
	require.True(t, ok)
	assert.Equal(t, "AED", p.Unit)
	assert.Equal(t, []Point{{"Academic", 300}, {"Infrastructure", 10}}, p.Points)

	p, ok = panel(v, "CAPEX by Institution")
	require.True(t, ok)
	assert.Equal(t, []Point{{"U2", 210}, {"U1", 100}}, p.Points)

	p, ok = panel(v, "Revenue vs Expenses by Year")
	require.True(t, ok)
	assert.Equal(t, KindLine, p.Kind)
	assert.Equal(t, []Point{{"2022", 500}, {"2023", 1000}}, p.Points)
	assert.Equal(t, []Point{{"2022", 700}, {"2023", 800}}, p.Compare)
	assert.Equal(t, []string{"Revenue", "Expenses"}, p.Legend)

	_, ok = panel(v, "OPEX Breakdown")
	assert.False(t, ok, "no OPEX columns present")
}

func TestBuild_TopNCapsRankedPanels(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Emp_Institution_Name\n")
	for i := range 12 {
		for range 12 - i {
			fmt.Fprintf(&sb, "U%02d\n", i)
		}
	}
	reg := load(t, map[string]string{"CHEDS-HR-21_employees.csv": sb.String()})

	v, err := Build(reg, catalog.Default(), "hr", Options{})
	require.NoError(t, err)
	p, ok := panel(v, "Employees by Institution")
	require.True(t, ok)
	assert.Len(t, p.Points, 10)
	assert.Equal(t, Point{"U00", 12}, p.Points[0])

	v, err = Build(reg, catalog.Default(), "hr", Options{TopN: 3})
	require.NoError(t, err)
	p, _ = panel(v, "Employees by Institution")
	assert.Len(t, p.Points, 3)
}

func TestBuild_AdvancementStartups(t *testing.T) {
	reg := load(t, map[string]string{
		"CHEDS-ADV-39_startups.csv": "Startup_Institution_Name,Startup_Status,Startup_Year\n" +
			"U1,Active,2024\nU1,Closed,2022\nU2,Active,2023\nU3,active,2024\n",
	})

	v, err := Build(reg, catalog.Default(), "adv", Options{})
	require.NoError(t, err)

	assert.Equal(t, "4", metric(t, v, "Startups").Value)
	assert.Equal(t, Metric{Label: "Active Startups", Value: "2", Delta: "50.0%"}, metric(t, v, "Active Startups"))

	p, ok := panel(v, "Startups by Year")
	require.True(t, ok)
	assert.Equal(t, []Point{{"2022", 1}, {"2023", 1}, {"2024", 2}}, p.Points)
}

func TestBuild_GenericDomain(t *testing.T) {
	cat, err := catalog.Parse([]byte(`
domains:
  - key: ops
    name: Operations
    products: [OPS-1, OPS-2]
`), nil)
	require.NoError(t, err)

	l := loader.New(cat)
	d, err := l.LoadOne("OPS-1_a.csv", strings.NewReader("x\n1\n2\n"))
	require.NoError(t, err)
	reg := registry.New(nil)
	reg.Put(d)

	v, err := Build(reg, cat, "ops", Options{})
	require.NoError(t, err)
	require.Len(t, v.Panels, 1)
	assert.Equal(t, []Point{{"OPS-1", 2}}, v.Panels[0].Points)
	assert.Equal(t, "2", metric(t, v, "OPS-1").Value)
}

func TestBuildAll(t *testing.T) {
	reg := load(t, map[string]string{"CHEDS-RES-27_pubs.csv": "Pub_Total_Citations,Pub_scopus_Indicator\n5,Yes\n7,no\n"})

	all := BuildAll(reg, catalog.Default(), Options{})
	require.Len(t, all, 7)

	var loaded int
	for _, v := range all {
		if !v.Empty {
			loaded++
			assert.Equal(t, "res", v.Key)
			assert.Equal(t, "12", metric(t, v, "Total Citations").Value)
			assert.Equal(t, "1", metric(t, v, "Scopus Indexed").Value)
		}
	}
	assert.Equal(t, 1, loaded)
}
