package views

import (
	"strings"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/format"
)

func buildLearningTeaching(b *builder) {
	var applicants, enrolled, graduates, courses, programs int

	if b.use("CHEDS-LT-01", "Applications") {
		if s, ok := b.sum("applicants"); ok {
			applicants = int(s)
		} else {
			applicants = b.rows()
		}
	}
	if d, ok := b.product("CHEDS-LT-03"); ok {
		enrolled = d.RowCount
	}
	if d, ok := b.product("CHEDS-LT-09"); ok {
		graduates = d.RowCount
	}
	if d, ok := b.product("CHEDS-LT-11"); ok {
		courses = d.RowCount
	}
	if d, ok := b.product("CHEDS-LT-12"); ok {
		programs = d.RowCount
	}

	b.metric("Total Applicants", format.Int(applicants), "")
	b.metric("Enrolled Students", format.Int(enrolled), "")
	b.metric("Graduates", format.Int(graduates), "")
	b.metric("Courses", format.Int(courses), "")
	b.metric("Programs", format.Int(programs), "")

	if applicants > 0 && enrolled > 0 {
		b.metric("Acceptance Rate", share(enrolled, applicants), "enrolled / applicants")
		b.metric("Graduation Rate", share(graduates, enrolled), "graduates / enrolled")
		if courses > 0 {
			b.metric("Students per Course", format.Fixed1(float64(enrolled)/float64(courses)), "")
		}
	}

	if b.use("CHEDS-LT-01", "Applications") {
		b.sumBy("institution", "applicants", "Applicants by Institution", KindBar, 10, "")
		b.sumBy("degree", "applicants", "Applicants by Degree", KindPie, 0, "")
		b.sumBy("gender", "applicants", "Applicants by Gender", KindPie, 0, "")
		b.sumBy("nationality", "applicants", "Applicants by Nationality", KindBar, 10, "")
	}
	if b.use("CHEDS-LT-03", "Enrollment") {
		b.counts("gender", "Enrollment by Gender", KindPie, 0)
		b.counts("nationality", "Enrollment by Nationality", KindBar, 10)
		b.counts("institution", "Enrollment by Institution", KindBar, 10)
		b.counts("degree", "Enrollment by Degree", KindPie, 0)
		b.counts("student_type", "Student Type", KindPie, 0)
		b.counts("study_mode", "Mode of Study", KindPie, 0)
	}
	if b.use("CHEDS-LT-09", "Graduation") {
		b.counts("institution", "Graduates by Institution", KindBar, 10)
		b.counts("degree", "Graduates by Degree", KindPie, 0)
		b.counts("gender", "Graduates by Gender", KindPie, 0)
		b.counts("nationality", "Graduates by Nationality", KindBar, 10)
		b.histogram("gpa", "GPA Distribution")
	}
}

func buildHumanResources(b *builder) {
	if b.use("CHEDS-HR-21", "Workforce") {
		total := b.rows()
		b.metric("Total Employees", format.Int(total), "")
		if b.has("gender") {
			male, _ := aggregate.CountEqual(b.current, "gender", "M")
			female, _ := aggregate.CountEqual(b.current, "gender", "F")
			b.metric("Male", format.Int(male), share(male, total))
			b.metric("Female", format.Int(female), share(female, total))
		}
		if b.has("nationality") {
			uae, _ := aggregate.CountEqual(b.current, "nationality", "AE")
			b.metric("UAE Nationals", format.Int(uae), share(uae, total))
			b.metric("Expatriates", format.Int(total-uae), share(total-uae, total))
		}
		b.counts("gender", "Employees by Gender", KindPie, 0)
		b.counts("nationality", "Employees by Nationality", KindBar, 10)
		b.counts("institution", "Employees by Institution", KindBar, 10)
		b.counts("position", "Employees by Position", KindBar, 10)
	}

	if b.use("CHEDS-HR-23", "Program Learning Outcomes") {
		if n, ok := b.nunique("program_code"); ok {
			b.metric("Programs", format.Int(n), "")
		}
		b.metric("PLOs", format.Int(b.rows()), "")
		if n, ok := b.nunique("institution"); ok {
			b.metric("Institutions", format.Int(n), "")
		}
		b.counts("institution", "PLOs by Institution", KindBar, 10)
		b.nuniqueBy("institution", "program_code", "Programs by Institution", 10)
	}

	if b.use("CHEDS-HR-22", "Workload") {
		b.metric("Workload Records", format.Int(b.rows()), "")
		for _, f := range []labelled{
			{"Avg Teaching Load", "teaching_load"},
			{"Avg Research Load", "research_load"},
			{"Avg Max Load", "max_load"},
		} {
			if m, ok := b.mean(f.col); ok {
				b.metric(f.label, format.Fixed1(m), "")
			}
		}
		b.counts("institution", "Workload Records by Institution", KindBar, 10)
		b.counts("period", "Records by Academic Period", KindBar, 0)
		b.counts("category", "Employee Category", KindPie, 0)
		b.counts("employment", "Full vs Part Time", KindPie, 0)
		b.averages("Teaching vs Research Workload", []labelled{
			{"Teaching", "teaching_load"},
			{"Research", "research_load"},
		})
		b.counts("department", "Records by Department", KindBar, 10)
	}
}

var (
	capexParts = []labelled{
		{"Academic", "Finance_Capex_Academic"},
		{"Administrative", "Finance_Capex_Administrative"},
		{"Infrastructure", "Finance_Capex_Infra"},
		{"Library", "Finance_Capex_Library"},
		{"Research", "Finance_Capex_Research"},
		{"Student", "Finance_Capex_Student"},
		{"Other", "Finance_Capex_Other"},
	}
	opexParts = []labelled{
		{"Academic", "Finance_Opex_Academic"},
		{"Administrative", "Finance_Opex_Administrative"},
		{"Infrastructure", "Finance_Opex_Infra"},
		{"Library", "Finance_Opex_Library"},
		{"Research", "Finance_Opex_Research"},
		{"Student", "Finance_Opex_Student"},
		{"IP", "Finance_Opex_Intellect_Property"},
		{"Other", "Finance_Opex_Other"},
	}
	revenueParts = []labelled{
		{"UG Credit Courses", "Finance_Revenue_TuitionFees_UG_Credit_Course"},
		{"UG Non-credit Courses", "Finance_Revenue_TuitionFees_UG_Noncredit_Course"},
		{"Graduate Programs", "Finance_Revenue_TuitionFees_Graduate_Program"},
		{"Private Donations", "Finance_Revenue_Private_Donation"},
		{"Local Government", "Finance_Revenue_Local_Gov"},
		{"Federal Government", "Finance_Revenue_Federal_Gov"},
		{"Research Grants", "Finance_Revenue_External_Research_Grants"},
		{"Consulting", "Finance_Revenue_Consult_Service"},
		{"Internal Other", "Finance_Revenue_Internal_Other"},
		{"External Other", "Finance_Revenue_External_Other"},
	}
	salaryParts = []labelled{
		{"Academic", "Finance_Salaries_Academic"},
		{"Administrative", "Finance_Salaries_Administrative"},
		{"Faculty FT", "Finance_Salaries_Faculty_FT"},
		{"Faculty PT/FT", "Finance_Salaries_Faculty_PT_FT"},
		{"Faculty FT Research", "Finance_Salaries_Faculty_FT_Research"},
		{"Student Services", "Finance_Salaries_Student_Services"},
	}
	researchFundParts = []labelled{
		{"Institution", "Finance_Research_Fund_Institution"},
		{"Federal", "Finance_Research_Fund_Federal"},
		{"Local", "Finance_Research_Fund_Local"},
		{"Private UAE", "Finance_Research_Fund_Private_UAE"},
		{"Private UAE Nonprofit", "Finance_Research_Fund_Private_UAE_Nonprofit"},
		{"Foreign", "Finance_Research_Fund_Foreign"},
		{"Other", "Finance_Research_Fund_Other"},
	}
)

// financeColumns matches the columns of one FIN-25 cost family, excluding
// the percentage column that shares its prefix.
func financeColumns(prefix, exclude string) func(string) bool {
	return func(col string) bool {
		return strings.Contains(col, prefix) && col != exclude
	}
}

func buildFinancial(b *builder) {
	if !b.use("CHEDS-FIN-25", "Finance") {
		return
	}
	d := b.current

	capex := aggregate.MatchingColumns(d, financeColumns("Finance_Capex_", "Finance_Capex_Indirect_Research_Percent"))
	opex := aggregate.MatchingColumns(d, financeColumns("Finance_Opex_", "Finance_Opex_Indirect_Research_Percent"))
	salaries := aggregate.MatchingColumns(d, financeColumns("Finance_Salaries_", "Finance_Salaries_Indirect_Research_Percent"))

	capexTotal, _ := aggregate.SumColumns(d, capex...)
	opexTotal, _ := aggregate.SumColumns(d, opex...)
	revenueTotal, _ := b.sum("total_revenue")
	expenseTotal, _ := b.sum("total_expenses")

	b.metric("Total CAPEX", format.Money(capexTotal), "")
	b.metric("Total OPEX", format.Money(opexTotal), "")
	b.metric("Total Revenue", format.Money(revenueTotal), "")
	b.metric("Total Expenses", format.Money(expenseTotal), "")

	b.breakdown("CAPEX Breakdown", format.Currency, capexParts)
	b.sumColumnsBy("institution", capex, "CAPEX by Institution", format.Currency, 10)
	b.breakdown("OPEX Breakdown", format.Currency, opexParts)
	b.sumColumnsBy("institution", opex, "OPEX by Institution", format.Currency, 10)
	b.breakdown("Revenue by Source", format.Currency, revenueParts)
	b.sumBy("institution", "total_revenue", "Revenue by Institution", KindBar, 10, format.Currency)
	b.breakdown("Salaries Breakdown", format.Currency, salaryParts)
	b.sumColumnsBy("institution", salaries, "Salaries by Institution", format.Currency, 10)
	b.breakdown("Research Funding by Source", format.Currency, researchFundParts)
	b.sumBy("institution", "research_fund_total", "Research Funding by Institution", KindBar, 10, format.Currency)

	legend := []string{"Revenue", "Expenses"}
	b.compareBy("institution", "total_revenue", "total_expenses", "Revenue vs Expenses by Institution", format.Currency, legend, false)
	b.compareBy("year", "total_revenue", "total_expenses", "Revenue vs Expenses by Year", format.Currency, legend, true)
}

func buildResearch(b *builder) {
	for _, c := range []labelled{
		{"Research Projects", "CHEDS-RES-26"},
		{"Publications", "CHEDS-RES-27"},
		{"Patents", "CHEDS-RES-28"},
		{"Citation Records", "CHEDS-RES-30"},
		{"Research Units", "CHEDS-RES-31"},
	} {
		if d, ok := b.product(c.col); ok {
			b.metric(c.label, format.Int(d.RowCount), "")
		}
	}

	if b.use("CHEDS-RES-26", "Projects") {
		b.counts("institution", "Projects by Institution", KindBar, 10)
		b.counts("department", "Projects by Department", KindBar, 10)
	}

	if b.use("CHEDS-RES-27", "Publications") {
		if s, ok := b.sum("citations"); ok {
			b.metric("Total Citations", format.Whole(s), "")
		}
		if n, ok := aggregate.CountPrefixFold(b.current, "scopus", "Y"); ok {
			b.metric("Scopus Indexed", format.Int(n), share(n, b.rows()))
		}
		if n, ok := b.nunique("institution"); ok {
			b.metric("Publishing Institutions", format.Int(n), "")
		}
		b.counts("institution", "Publications by Institution", KindBar, 10)
		b.counts("type", "Publication Type", KindPie, 0)
		b.trend("year", "Publications by Year")
		b.counts("area", "Publications by Area", KindBar, 10)
		b.sumBy("institution", "citations", "Most Cited Institutions", KindBar, 10, "")
		b.counts("researcher_type", "Researcher Type", KindPie, 0)
	}
}

func buildFacilities(b *builder) {
	if b.use("CHEDS-FAC-33", "Operations") {
		if m, ok := b.mean("class_size"); ok {
			b.metric("Avg Class Size", format.Fixed1(m), "")
		}
		if m, ok := b.mean("lab_size"); ok {
			b.metric("Avg Lab Size", format.Fixed1(m), "")
		}
		if n, ok := b.nunique("institution"); ok {
			b.metric("Institutions", format.Int(n), "")
		}
		if n, ok := b.nunique("degree"); ok {
			b.metric("Degree Programs", format.Int(n), "")
		}
		b.meanBy("institution", "class_size", "Avg Class Size by Institution", 10)
		b.meanBy("institution", "lab_size", "Avg Lab Size by Institution", 10)
		b.counts("degree", "Records by Degree", KindPie, 0)
		b.counts("specialization", "Areas of Specialization", KindBar, 10)
	}

	if b.use("CHEDS-FAC-34", "Facilities") {
		for _, f := range []labelled{
			{"Total Rooms", "rooms"},
			{"Total Labs", "labs"},
			{"Facilities Area", "area"},
			{"Library Books", "books"},
		} {
			if s, ok := b.sum(f.col); ok {
				b.metric(f.label, format.Whole(s), "")
			}
		}
		b.counts("institution_type", "Institution Type", KindPie, 0)
		b.counts("ownership", "Ownership", KindPie, 0)
		b.breakdown("Facilities by Type", "", []labelled{
			{"Classrooms", "Overview_Facilities_Classrooms"},
			{"Labs", "Overview_Facilities_Labs"},
			{"Libraries", "Overview_Facilities_Libraries"},
			{"Residential", "Overview_Facilities_Residential"},
			{"Student Services", "Overview_Facilities_Student Services"},
			{"Administration", "Overview_Facilities_Administration"},
		})
		b.sumBy("institution", "rooms", "Rooms by Institution", KindBar, 10, "")
		b.meanBy("institution", "student_faculty_ratio", "Student-Faculty Ratio by Institution", 10)
		b.meanBy("institution", "dropout_rate", "Dropout Rate by Institution", 10)
		b.breakdown("Library Resources", "", []labelled{
			{"Books", "Overview_Books"},
			{"E-books", "Overview_Ebooks"},
			{"Journals", "Overview_Journals"},
			{"E-serials", "Overview_Eserial"},
			{"Computers", "Overview_Computers"},
			{"Textbooks", "Overview_Textbooks"},
		})
		b.sumBy("institution", "books", "Books by Institution", KindBar, 10, "")
		b.yesCounts("Campus Amenities", []labelled{
			{"Accommodations", "Overview_Accomodations"},
			{"Activities Center", "Overview_Activities_Center"},
			{"Career Center", "Overview_Career_Center"},
			{"Sports Facilities", "Overview_Sports_Facilities"},
			{"Parking", "Overview_Parking"},
			{"Transport", "Overview_Transport"},
			{"Special Needs", "Overview_Special_Needs_Availability"},
		})
		b.counts("accreditation", "Accreditation Bodies", KindBar, 10)
	}
}

func buildSupport(b *builder) {
	for _, c := range []labelled{
		{"Student Events", "CHEDS-SUP-35"},
		{"Surveys", "CHEDS-SUP-36"},
		{"Counseling Sessions", "CHEDS-SUP-40"},
		{"Support Services", "CHEDS-SUP-41"},
	} {
		if d, ok := b.product(c.col); ok {
			b.metric(c.label, format.Int(d.RowCount), "")
		}
	}

	if b.use("CHEDS-SUP-35", "Events") {
		if s, ok := b.sum("attendees"); ok {
			b.metric("Total Attendees", format.Whole(s), "")
		}
		if s, ok := b.sum("budget"); ok {
			b.metric("Events Budget", format.Money(s), "")
		}
		if n, ok := b.nunique("institution"); ok {
			b.metric("Hosting Institutions", format.Int(n), "")
		}
		b.counts("institution", "Events by Institution", KindBar, 10)
		b.counts("type", "Event Type", KindPie, 0)
		b.counts("category", "Event Category", KindBar, 10)
		b.counts("scope", "Event Scope", KindPie, 0)
		b.counts("audience", "Target Audience", KindBar, 8)
		b.counts("frequency", "Event Frequency", KindPie, 0)
		b.counts("department", "Events by Department", KindBar, 10)
		b.meanBy("type", "attendees", "Avg Attendance by Event Type", 8)
	}

	if b.use("CHEDS-SUP-36", "Surveys") {
		if s, ok := b.sum("faculty_respondents"); ok {
			b.metric("Faculty Respondents", format.Whole(s), "")
		}
		if s, ok := b.sum("staff_respondents"); ok {
			b.metric("Staff Respondents", format.Whole(s), "")
		}
		if n, ok := b.nunique("institution"); ok {
			b.metric("Surveyed Institutions", format.Int(n), "")
		}
		if m, ok := b.mean("academic_policies"); ok {
			b.metric("Academic Policies Rating", format.Fixed1(m), "")
		}
		b.counts("institution", "Surveys by Institution", KindBar, 10)
		b.trend("year", "Surveys by Academic Year")
		b.averages("Faculty Satisfaction", ratingParts("Survey_Faculty_",
			"Library", "Promotion", "Research_Facilities", "Teaching", "Work_Environment"))
		b.averages("Staff Satisfaction", ratingParts("Survey_Staff_",
			"Development", "Appreciation", "Manager", "Promotion", "Work_Condition"))
		b.counts("department", "Surveys by Department", KindBar, 10)
	}
}

// ratingParts builds labelled survey columns; labels drop the prefix.
func ratingParts(prefix string, names ...string) []labelled {
	out := make([]labelled, len(names))
	for i, n := range names {
		out[i] = labelled{label: strings.ReplaceAll(n, "_", " "), col: prefix + n}
	}
	return out
}

func buildAdvancement(b *builder) {
	for _, c := range []labelled{
		{"Partnerships", "CHEDS-ADV-37"},
		{"PLO Records", "CHEDS-ADV-38"},
		{"Startups", "CHEDS-ADV-39"},
	} {
		if d, ok := b.product(c.col); ok {
			b.metric(c.label, format.Int(d.RowCount), "")
		}
	}

	if b.use("CHEDS-ADV-37", "Partnerships") {
		if n, ok := b.nunique("partner"); ok {
			b.metric("Unique Partners", format.Int(n), "")
		}
		if s, ok := b.sum("value"); ok {
			b.metric("Partnership Value", format.Money(s), "")
		}
		if n, ok := b.nunique("country"); ok {
			b.metric("Partner Countries", format.Int(n), "")
		}
		b.counts("institution", "Partnerships by Institution", KindBar, 10)
		b.counts("partnership_type", "Partnership Type", KindPie, 0)
		b.counts("partner_type", "Partner Type", KindBar, 8)
		b.counts("partner_category", "Partner Category", KindPie, 0)
		b.counts("industry", "Partner Industry", KindBar, 10)
		b.counts("country", "Partner Country", KindBar, 10)
		b.trend("year", "Partnerships by Year")
		b.counts("department", "Partnerships by Department", KindBar, 10)
		b.counts("college", "Partnerships by College", KindBar, 8)
		b.meanBy("partnership_type", "value", "Avg Value by Partnership Type", 8)
	}

	if b.use("CHEDS-ADV-38", "Program Outcomes") {
		for _, f := range []labelled{
			{"Institutions", "institution"},
			{"Programs", "program"},
			{"Periods", "period"},
		} {
			if n, ok := b.nunique(f.col); ok {
				b.metric(f.label, format.Int(n), "")
			}
		}
		b.counts("institution", "PLOs by Institution", KindBar, 10)
		b.counts("program", "PLOs by Program", KindBar, 10)
		b.trend("period", "PLOs by Period")
		b.counts("code", "PLO Codes", KindBar, 10)
	}

	if b.use("CHEDS-ADV-39", "Startups") {
		if n, ok := b.nunique("institution"); ok {
			b.metric("Startup Institutions", format.Int(n), "")
		}
		if n, ok := aggregate.CountEqual(b.current, "status", "Active"); ok {
			b.metric("Active Startups", format.Int(n), share(n, b.rows()))
		}
		if n, ok := b.nunique("academic_year"); ok {
			b.metric("Academic Years", format.Int(n), "")
		}
		b.counts("institution", "Startups by Institution", KindBar, 0)
		b.counts("status", "Startup Status", KindPie, 0)
		b.trend("year", "Startups by Year")
		b.trend("academic_year", "Startups by Academic Year")
	}
}
