package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/stemsi/student-dashboard/internal/config"
	"github.com/stemsi/student-dashboard/internal/database"
	"github.com/stemsi/student-dashboard/internal/grading"
	"github.com/stemsi/student-dashboard/internal/logger"
	"github.com/stemsi/student-dashboard/internal/model"
	"github.com/stemsi/student-dashboard/internal/repository"
	"github.com/stemsi/student-dashboard/internal/service"
)

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Jamal Mirdad", "Kiki Fatmala", "Lukman Hakim",
	"Maya Septiana", "Nanda Pratama", "Oki Setiana", "Putri Dian", "Qori Maharani",
	"Rafi Ahmad", "Siska Saraswati", "Toni Setiawan", "Umi Kalsum", "Vina Panduwinata",
	"Wahyu Hidayat", "Xena Maharani", "Yudi Pratama", "Zaki Anwar", "Alifia Zahra",
	"Bagas Saputra", "Citra Kirana", "Dimas Anggara", "Elisa Novita", "Fikri Maulana",
	"Gali Rakasiwi", "Hani Hanifah", "Iqbal Ramadhan", "Jasmine Azzahra", "Kevin Sanjaya",
	"Larasati Dewi", "Miko Pambudi", "Nia Ramadhani", "Oscar Lawalata", "Puput Melati",
	"Reza Rahadian", "Sari Nila", "Tigor Siahaan", "Utari Maharani", "Vicky Prasetyo",
}

func main() {
	count := flag.Int("count", 50, "Number of students to create")
	start := flag.Int("start", 1, "First roll number")
	seed := flag.Int64("seed", 1, "Random seed for marks")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open record store")
	}
	defer store.Close()

	scheme := grading.NewScheme(cfg.Subjects, cfg.MaxMarksPerSubject)
	studentService := service.NewStudentService(store.Students, scheme, store.StatisticsCache(), log)
	rng := rand.New(rand.NewSource(*seed))

	fmt.Printf("=== Seeding %d Students ===\n", *count)

	successCount := 0
	for i := 0; i < *count; i++ {
		in := model.StudentInput{
			RollNo: *start + i,
			Name:   names[i%len(names)],
			Age:    16 + rng.Intn(4),
			Gender: grading.Genders[i%2],
			Marks:  make([]float64, scheme.SubjectCount()),
		}
		// 35..100 so every grade band shows up.
		for j := range in.Marks {
			in.Marks[j] = float64(35 + rng.Intn(66))
			if in.Marks[j] > scheme.MaxMarksPerSubject {
				in.Marks[j] = scheme.MaxMarksPerSubject
			}
		}

		if _, err := studentService.Add(ctx, in); err != nil {
			if errors.Is(err, repository.ErrDuplicateRollNo) {
				fmt.Printf("Skipping roll number %d: already exists\n", in.RollNo)
				continue
			}
			fmt.Printf("Error creating student %s (roll %d): %v\n", in.Name, in.RollNo, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, *count)
}
