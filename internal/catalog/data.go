package catalog

import "github.com/Inilogicz/Nutri-food/internal/model"

func defaultMeals() map[model.TimeOfDay]model.Meal {
	return map[model.TimeOfDay]model.Meal{
		model.TimeOfDayMorning: {
			ID:          "1",
			Name:        "Protein Pancakes with Berries",
			Description: "Fluffy protein pancakes topped with fresh berries and a drizzle of honey. Perfect for starting your day with energy.",
			Category:    "Breakfast",
			TimeOfDay:   []model.TimeOfDay{model.TimeOfDayMorning},
			ImageURL:    "https://images.unsplash.com/photo-1567620905732-2d1ec7ab7445?auto=format&fit=crop&w=800&q=80",
			Calories:    350,
			Protein:     25,
			Carbs:       40,
			Fats:        8,
			Ingredients: []string{
				"1 cup oat flour",
				"1 scoop protein powder",
				"1 egg",
				"1/2 cup almond milk",
				"1/2 cup mixed berries",
				"1 tsp honey",
			},
			Instructions: []string{
				"Mix dry ingredients",
				"Add wet ingredients and whisk",
				"Cook on medium heat",
				"Top with berries and honey",
			},
		},
		model.TimeOfDayAfternoon: {
			ID:          "2",
			Name:        "Quinoa Salad Bowl",
			Description: "Nutritious quinoa salad with roasted vegetables and lemon-tahini dressing.",
			Category:    "Lunch",
			TimeOfDay:   []model.TimeOfDay{model.TimeOfDayAfternoon},
			ImageURL:    "https://images.unsplash.com/photo-1546069901-ba9599a7e63c?auto=format&fit=crop&w=800&q=80",
			Calories:    420,
			Protein:     18,
			Carbs:       55,
			Fats:        15,
			Ingredients: []string{
				"1 cup cooked quinoa",
				"1/2 cup chickpeas",
				"1/2 cup roasted vegetables",
				"2 tbsp tahini",
				"1 lemon juiced",
				"1 tbsp olive oil",
			},
			Instructions: []string{
				"Combine quinoa and chickpeas",
				"Add roasted vegetables",
				"Whisk dressing ingredients",
				"Toss everything together",
			},
		},
		model.TimeOfDayNight: {
			ID:          "3",
			Name:        "Grilled Salmon with Asparagus",
			Description: "Perfectly grilled salmon with roasted asparagus and quinoa. Light yet satisfying dinner option.",
			Category:    "Dinner",
			TimeOfDay:   []model.TimeOfDay{model.TimeOfDayNight},
			ImageURL:    "https://images.unsplash.com/photo-1467003909585-2f8a72700288?auto=format&fit=crop&w=800&q=80",
			Calories:    480,
			Protein:     38,
			Carbs:       30,
			Fats:        22,
			Ingredients: []string{
				"1 salmon fillet",
				"1 bunch asparagus",
				"1/2 cup cooked quinoa",
				"1 lemon",
				"2 tbsp olive oil",
				"Salt and pepper to taste",
			},
			Instructions: []string{
				"Season salmon and asparagus",
				"Grill salmon for 4-5 minutes per side",
				"Roast asparagus for 10 minutes",
				"Serve with quinoa and lemon",
			},
		},
	}
}

func defaultDieticians() []model.Dietician {
	return []model.Dietician{
		{
			ID:            "1",
			Name:          "Dr. Sarah Johnson",
			Specialty:     "Weight Management",
			Bio:           "Certified nutrition specialist with 10 years of experience helping clients achieve sustainable weight loss.",
			ImageURL:      "https://images.unsplash.com/photo-1559839734-2b71ea197ec2?auto=format&fit=crop&w=800&q=80",
			Rating:        4.8,
			Reviews:       124,
			RatePerMinute: 100,
			Available:     true,
		},
		{
			ID:            "2",
			Name:          "Dr. Michael Chen",
			Specialty:     "Diabetes Care",
			Bio:           "Endocrinologist specializing in nutritional approaches to diabetes management and prevention.",
			ImageURL:      "https://images.unsplash.com/photo-1622253692010-333f2da6031d?auto=format&fit=crop&w=800&q=80",
			Rating:        4.9,
			Reviews:       98,
			RatePerMinute: 120,
			Available:     true,
		},
		{
			ID:            "3",
			Name:          "Dr. Emily Wilson",
			Specialty:     "Pediatric Nutrition",
			Bio:           "Pediatric dietitian focused on creating healthy eating habits for children and families.",
			ImageURL:      "https://images.unsplash.com/photo-1594824476967-48c8b964273f?auto=format&fit=crop&w=800&q=80",
			Rating:        4.7,
			Reviews:       87,
			RatePerMinute: 150,
			Available:     true,
		},
		{
			ID:            "4",
			Name:          "Dr. James Rodriguez",
			Specialty:     "Sports Nutrition",
			Bio:           "Performance nutritionist working with athletes to optimize their diet for peak performance.",
			ImageURL:      "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?auto=format&fit=crop&w=800&q=80",
			Rating:        4.9,
			Reviews:       156,
			RatePerMinute: 180,
			Available:     true,
		},
		{
			ID:            "5",
			Name:          "Dr. Aisha Mohammed",
			Specialty:     "Plant-Based Nutrition",
			Bio:           "Expert in plant-based diets and helping clients transition to vegetarian/vegan lifestyles.",
			ImageURL:      "https://images.unsplash.com/photo-1573496359142-b8d87734a5a2?auto=format&fit=crop&w=800&q=80",
			Rating:        4.8,
			Reviews:       112,
			RatePerMinute: 130,
			Available:     true,
		},
	}
}
