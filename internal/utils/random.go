package utils

import (
	"fmt"
	"math/rand"

	"github.com/hvac-crew/schedule/backend/internal/domain"
	"github.com/hvac-crew/schedule/backend/internal/schedule"
)

var firstNames = []string{
	"Alex", "Jordan", "Sam", "Casey", "Riley", "Morgan", "Taylor", "Jamie",
	"Drew", "Avery", "Quinn", "Reese", "Dana", "Lee", "Kim", "Pat",
}

var lastNames = []string{
	"Garcia", "Nguyen", "Smith", "Patel", "Johnson", "Lopez", "Brown", "Kowalski",
	"Miller", "Davis", "Wilson", "Clark",
}

var jobs = []string{
	"Install", "Repair", "Maintenance", "Inspection", "Duct cleaning",
	"Furnace tune-up", "AC start-up", "Warranty call", "Estimate",
}

func GenerateRandomName() string {
	return firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
}

func GenerateRandomJob() string {
	return fmt.Sprintf("%s #%d", jobs[rand.Intn(len(jobs))], rand.Intn(9000)+1000)
}

// GenerateRandomWeek 生成 rows 行的演示排班，大约一半的格子有工作，少量安排了 PTO
func GenerateRandomWeek(rows int) domain.Snapshot {
	week := domain.Snapshot{}
	for _, day := range schedule.Days {
		for row := 1; row <= rows; row++ {
			prefix := fmt.Sprintf("%s:%02d:", day, row)

			if rand.Intn(10) == 0 {
				week[prefix+"pto"] = domain.Bool(true)
				continue
			}
			if rand.Intn(2) == 0 {
				week[prefix+"job"] = domain.String(GenerateRandomJob())
			}
			if rand.Intn(3) == 0 {
				week[prefix+"helper"] = domain.String(GenerateRandomName())
			}
			if rand.Intn(15) == 0 {
				week[prefix+"helperPto"] = domain.Bool(true)
			}
		}
	}
	return week
}

// GenerateRandomRoster 生成设置中的班组名单，部分行只有负责人
func GenerateRandomRoster(rows int) domain.Snapshot {
	roster := domain.Snapshot{}
	for row := 1; row <= rows; row++ {
		roster[fmt.Sprintf("Lead:%02d", row)] = domain.String(GenerateRandomName())
		if rand.Intn(3) != 0 {
			roster[fmt.Sprintf("Apprentice:%02d", row)] = domain.String(GenerateRandomName())
		}
	}
	return roster
}
