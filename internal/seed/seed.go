// Package seed provides the sample recruiting data used when nothing has
// been persisted yet.
package seed

import (
	"embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"talentsparkle/internal/types"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// DefaultCandidateCount matches the size of the demo dataset
const DefaultCandidateCount = 100

// Data is the static part of the sample dataset
type Data struct {
	Jobs         []types.Job
	Universities []types.University
	Templates    []types.MessageTemplate
}

// Load parses the embedded sample files
func Load() (*Data, error) {
	var d Data
	if err := decode("data/jobs.yaml", &d.Jobs); err != nil {
		return nil, err
	}
	if err := decode("data/universities.yaml", &d.Universities); err != nil {
		return nil, err
	}
	if err := decode("data/templates.yaml", &d.Templates); err != nil {
		return nil, err
	}
	return &d, nil
}

func decode(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// JobIDs returns the ids of the sample jobs in order
func (d *Data) JobIDs() []string {
	ids := make([]string, len(d.Jobs))
	for i, j := range d.Jobs {
		ids[i] = j.ID
	}
	return ids
}

var (
	firstNames = []string{"Aarav", "Vivaan", "Aditya", "Vihaan", "Arjun", "Sai", "Reyansh", "Ayaan", "Krishna", "Ishaan", "Shaurya", "Atharv", "Advait", "Pranav", "Aadhya", "Ananya", "Saanvi", "Diya", "Kiara", "Isha", "Kavya", "Priya", "Riya", "Nisha", "Shreya"}
	lastNames  = []string{"Sharma", "Patel", "Kumar", "Singh", "Gupta", "Reddy", "Mehta", "Verma", "Iyer", "Nair", "Malhotra", "Desai", "Joshi", "Rao", "Agarwal", "Shah", "Kapoor", "Kulkarni", "Chopra", "Banerjee", "Chatterjee", "Pillai", "Bhat", "Shetty", "Menon"}
	cities     = []string{"Mumbai", "Bangalore", "Delhi", "Hyderabad", "Pune", "Chennai", "Kolkata", "Ahmedabad", "Gurgaon", "Noida"}
	skillSets  = [][]string{
		{"React", "TypeScript", "Node.js", "PostgreSQL"},
		{"Python", "Django", "AWS", "Docker"},
		{"Product Strategy", "User Research", "Analytics", "Roadmapping"},
		{"Content Marketing", "SEO", "Social Media", "Copywriting"},
		{"SQL", "Python", "Tableau", "Statistics"},
		{"Figma", "Sketch", "User Research", "Prototyping"},
		{"Kubernetes", "Terraform", "CI/CD", "AWS"},
		{"B2B Sales", "Prospecting", "Salesforce", "CRM"},
		{"React", "Next.js", "Tailwind", "JavaScript"},
		{"Technical Writing", "Documentation", "SEO"},
		{"TensorFlow", "PyTorch", "Python", "MLOps"},
		{"Account Management", "Customer Success", "SaaS"},
		{"Penetration Testing", "Security Audits", "Compliance"},
		{"Test Automation", "Selenium", "API Testing"},
		{"Business Intelligence", "Requirements Analysis", "Agile"},
		{"Swift", "SwiftUI", "iOS Development"},
		{"Recruitment", "Employee Relations", "HRIS"},
		{"Leadership", "Team Management", "Agile"},
		{"Growth Hacking", "A/B Testing", "Analytics"},
		{"Full Stack", "Node.js", "React", "PostgreSQL"},
	}
	education = []string{
		"B.Tech Computer Science, IIT Bombay",
		"B.Tech Engineering, IIT Delhi",
		"B.E. Computer Science, BITS Pilani",
		"M.Tech Data Science, IIT Madras",
		"B.Com Business Administration, Delhi University",
		"B.Tech Information Technology, NIT Trichy",
		"MBA, IIM Ahmedabad",
		"B.Sc Mathematics, St. Xavier's College Mumbai",
		"B.Des Design, NID Ahmedabad",
		"B.Tech Computer Engineering, IIT Kanpur",
	}
	// early stages only; most generated applicants are fresh
	seedStages = []types.Stage{types.StageApplied, types.StagePhoneScreen, types.StageInterview}
)

const bio = "Passionate about technology and innovation. I love building products that make a difference. When I'm not coding, you can find me hiking or reading about the latest tech trends."

// GenerateCandidates builds count candidates applying to jobs from jobIDs.
// The same src and now always give the same candidates.
func GenerateCandidates(count int, jobIDs []string, src uint64, now time.Time) []types.Candidate {
	rng := rand.New(rand.NewPCG(src, src^0x9e3779b97f4a7c15))
	candidates := make([]types.Candidate, 0, count)

	for i := range count {
		first := firstNames[i%len(firstNames)]
		// shift the surname every full pass so generated names stay unique
		last := lastNames[(i+i/len(firstNames))%len(lastNames)]
		name := first + " " + last
		handle := strings.ToLower(first + last)
		skills := skillSets[i%len(skillSets)]
		years := rng.IntN(10) + 1
		verified := rng.Float64() > 0.5

		credibility := rng.IntN(40) + 30
		if verified {
			credibility += 30
		}

		c := types.Candidate{
			ID:               fmt.Sprintf("candidate-%d", i+1),
			Name:             name,
			Email:            fmt.Sprintf("%s.%s@email.com", strings.ToLower(first), strings.ToLower(last)),
			Headline:         skills[0] + " Developer",
			Location:         cities[i%len(cities)] + ", India",
			Skills:           append([]string(nil), skills...),
			YearsExperience:  years,
			Education:        education[i%len(education)],
			ResumeText:       resumeText(name, skills, years),
			CoverLetterText:  coverLetter(name, "this position"),
			VerifiedTalent:   verified,
			CredibilityScore: credibility,
			AssessmentScores: types.AssessmentScores{
				"technical":      rng.IntN(30) + 70,
				"communication":  rng.IntN(30) + 70,
				"problemSolving": rng.IntN(30) + 70,
			},
			Availability: "2 weeks notice",
			CurrentStage: map[string]types.Stage{},
			AppliedDate:  map[string]time.Time{},
			Bio:          bio,
		}
		if verified {
			c.GithubURL = "https://github.com/" + handle
		}
		if rng.Float64() > 0.6 {
			c.PortfolioURL = "https://portfolio." + handle + ".com"
		}
		if rng.Float64() > 0.7 {
			c.Availability = "Immediate"
		}

		if len(jobIDs) > 0 {
			applications := rng.IntN(3) + 1
			for range applications {
				jobID := jobIDs[rng.IntN(len(jobIDs))]
				if c.AppliedTo(jobID) {
					continue
				}
				c.AppliedJobIDs = append(c.AppliedJobIDs, jobID)
				c.CurrentStage[jobID] = seedStages[rng.IntN(len(seedStages))]
				c.AppliedDate[jobID] = now.AddDate(0, 0, -rng.IntN(30)).UTC().Truncate(time.Millisecond)
			}
		}

		candidates = append(candidates, c)
	}

	return candidates
}

func resumeText(name string, skills []string, years int) string {
	title := "Junior Developer"
	switch {
	case years > 3:
		title = "Senior Developer"
	case years > 1:
		title = "Mid-Level Developer"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nPROFESSIONAL SUMMARY\n", name)
	fmt.Fprintf(&b, "Highly motivated professional with %d years of experience in %s and %s. ", years, skills[0], skills[1])
	b.WriteString("Proven track record of delivering high-quality projects and collaborating with cross-functional teams.\n\n")
	fmt.Fprintf(&b, "SKILLS\n%s\n\n", strings.Join(skills, ", "))
	fmt.Fprintf(&b, "EXPERIENCE\n%s | Tech Company (%d - Present)\n", title, 2025-years)
	fmt.Fprintf(&b, "- Led development of key features using %s and %s\n", skills[0], skills[1])
	b.WriteString("- Collaborated with product and design teams\n- Mentored junior team members\n- Improved system performance by 40%\n\n")
	b.WriteString("EDUCATION\nBachelor's Degree in Computer Science\n\n")
	b.WriteString("CERTIFICATIONS\n- AWS Certified Developer\n- Certified Scrum Master")
	return b.String()
}

func coverLetter(name, jobTitle string) string {
	return fmt.Sprintf(`Dear Hiring Manager,

I am writing to express my strong interest in the %s position. With my background in technology and passion for innovation, I am confident I would be a valuable addition to your team.

I would welcome the opportunity to discuss how my skills and experience could contribute to your team's success. Thank you for your consideration.

Best regards,
%s`, jobTitle, name)
}

// RenderTemplate fills {{placeholder}} fields. Unknown placeholders are left as-is.
func RenderTemplate(t types.MessageTemplate, vars map[string]string) (subject, body string) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	r := strings.NewReplacer(pairs...)
	return r.Replace(t.Subject), r.Replace(t.Body)
}
