package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
)

var (
	firstNames = []string{
		"Aarav", "Ana", "Bilal", "Chen", "Daniela", "Emeka", "Fatima", "Gustavo", "Hana", "Ivan",
		"Jia", "Kofi", "Lena", "Mateo", "Nadia", "Omar", "Priya", "Quinn", "Rosa", "Sven",
	}
	lastNames = []string{
		"Ahmed", "Bauer", "Costa", "Diaz", "Eze", "Fischer", "Gupta", "Haddad", "Ito", "Jensen",
		"Kim", "Lopez", "Mensah", "Novak", "Okafor", "Patel", "Rossi", "Silva", "Tanaka", "Weber",
	}
	departments = []string{"Computer Science", "Mechanical Engineering", "Economics", "Biology", "Civil Engineering"}
)

func main() {
	n := flag.Int("n", 200, "Number of students to generate")
	seed := flag.Uint64("seed", 42, "Random seed; the same seed yields the same students")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	fmt.Printf("=== Seeding %d Students ===\n", *n)

	inserted := 0
	batch := make([]model.Student, 0, cfg.ImportBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		res, err := studentRepo.CreateMany(ctx, batch)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to insert seed batch")
		}
		for _, rj := range res.Rejected {
			log.Warn().Str("student_id", batch[rj.Index].StudentID).Str("reason", rj.Reason).Msg("Seed row rejected")
		}
		inserted += res.Inserted
		batch = batch[:0]
		fmt.Printf("Inserted %d students...\n", inserted)
	}

	for i := 0; i < *n; i++ {
		batch = append(batch, randomStudent(rng, i+1))
		if len(batch) == cap(batch) {
			flush()
		}
	}
	flush()

	fmt.Printf("\nSeed completed! Inserted %d/%d students (existing IDs were skipped).\n", inserted, *n)
}

// randomStudent draws a plausible student; roughly one in five carries
// several risk signals at once.
func randomStudent(rng *rand.Rand, i int) model.Student {
	first := firstNames[rng.IntN(len(firstNames))]
	last := lastNames[rng.IntN(len(lastNames))]
	struggling := rng.IntN(5) == 0

	attendance := 70 + rng.Float64()*30
	cgpa := 5.5 + rng.Float64()*4
	if struggling {
		attendance = 35 + rng.Float64()*40
		cgpa = 2.5 + rng.Float64()*3.5
	}
	sgpa := clamp(cgpa+rng.NormFloat64()*0.8, 0, 10)
	income := float64(100000 + rng.IntN(900000))
	distance := float64(rng.IntN(120))

	gender := model.GenderFemale
	if i%2 == 0 {
		gender = model.GenderMale
	}

	return model.Student{
		StudentID:                 fmt.Sprintf("SEED%05d", i),
		Name:                      first + " " + last,
		Email:                     fmt.Sprintf("%s.%s.%d@example.edu", strings.ToLower(first), strings.ToLower(last), i),
		Gender:                    gender,
		Department:                departments[rng.IntN(len(departments))],
		Semester:                  1 + rng.IntN(8),
		AttendancePercentage:      round1(attendance),
		CGPA:                      round1(cgpa),
		SGPA:                      round1(sgpa),
		FeeDefault:                struggling && rng.IntN(2) == 0,
		Scholarship:               !struggling && rng.IntN(4) == 0,
		DisciplinaryActions:       boolToInt(struggling) * rng.IntN(4),
		ExtracurricularActivities: rng.IntN(5),
		FamilyIncome:              &income,
		DistanceFromHome:          &distance,
		HostelAccommodation:       rng.IntN(3) == 0,
		PreviousEducationGap:      struggling && rng.IntN(3) == 0,
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
