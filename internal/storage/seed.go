package storage

import (
	"time"

	"bankist/internal/auth"
	"bankist/internal/models"
)

type seedMovement struct {
	amount  float64
	memo    string
	daysAgo int
}

type seedAccount struct {
	owner        string
	pin          string
	interestRate float64
	currency     string
	locale       string
	movements    []seedMovement
}

// Demo data in the spirit of the original app: two accounts with movement
// histories spread over the past year, the latest entries inside the current
// month so the monthly summary has something to show. Log in with js/1111 or
// jd/2222.
var seedAccounts = []seedAccount{
	{
		owner:        "Jordan Smith",
		pin:          "1111",
		interestRate: 1.2,
		currency:     "JPY",
		locale:       "ja-JP",
		movements: []seedMovement{
			{200, models.CategoryOther, 380},
			{455.23, models.CategorySalary, 345},
			{-306.5, models.CategoryFixed, 310},
			{25000, models.CategorySalary, 245},
			{-642.21, models.CategoryUtility, 120},
			{-133.9, models.CategoryMeal, 30},
			{79.97, models.CategoryOther, 1},
			{1300, models.CategorySalary, 0},
		},
	},
	{
		owner:        "Jamie Davis",
		pin:          "2222",
		interestRate: 1.5,
		currency:     "USD",
		locale:       "en-US",
		movements: []seedMovement{
			{5000, models.CategorySalary, 395},
			{3400, models.CategorySalary, 360},
			{-150, models.CategoryMeal, 330},
			{-790, models.CategoryFixed, 300},
			{-3210, models.CategoryEntertainment, 270},
			{-1000, models.CategoryTraffic, 140},
			{8500, models.CategorySalary, 2},
			{-30, models.CategoryCommunication, 1},
		},
	},
}

// Seed populates the directory with the demo accounts. Call only on an empty
// database; usernames collide otherwise.
func (db *DB) Seed() error {
	now := time.Now()
	for _, sa := range seedAccounts {
		hash, err := auth.HashPIN(sa.pin)
		if err != nil {
			return err
		}
		account, err := db.CreateAccount(sa.owner, hash, sa.interestRate, sa.currency, sa.locale)
		if err != nil {
			return err
		}
		for _, sm := range sa.movements {
			date := now.AddDate(0, 0, -sm.daysAgo)
			if err := db.AppendMovement(account.ID, sm.amount, sm.memo, date); err != nil {
				return err
			}
		}
	}
	return nil
}
