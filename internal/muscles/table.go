package muscles

// Muscle group tags, named after the regions of the body highlighter the
// dashboard renders.
const (
	Chest         = "chest"
	Triceps       = "triceps"
	Biceps        = "biceps"
	Forearm       = "forearm"
	FrontDeltoids = "front-deltoids"
	BackDeltoids  = "back-deltoids"
	UpperBack     = "upper-back"
	LowerBack     = "lower-back"
	Trapezius     = "trapezius"
	Quadriceps    = "quadriceps"
	Hamstring     = "hamstring"
	Gluteal       = "gluteal"
	Calves        = "calves"
	Abs           = "abs"
	Obliques      = "obliques"
)

var exerciseToMuscles = map[string][]string{
	// chest
	"Bench Press":         {Chest, Triceps, FrontDeltoids},
	"Chest Fly":           {Chest},
	"Decline Bench Press": {Chest, Triceps},
	"Incline Bench Press": {Chest, Triceps, FrontDeltoids},
	"Pullover":            {Chest, UpperBack},
	"Pec Deck":            {Chest},
	"Push Ups":            {Chest, Triceps, FrontDeltoids},
	"Dips":                {Chest, Triceps, FrontDeltoids},

	// shoulders
	"Arnold Press":    {FrontDeltoids, Triceps},
	"Front Raise":     {FrontDeltoids},
	"Lateral Raise":   {FrontDeltoids},
	"Overhead Press":  {FrontDeltoids, Triceps},
	"Rear Delt Raise": {BackDeltoids},
	"Reverse Fly":     {BackDeltoids, UpperBack},
	"Upright Row":     {FrontDeltoids, Trapezius},

	// back
	"Bent Over Row":         {UpperBack, LowerBack, Biceps},
	"Seated Row":            {UpperBack, LowerBack, Biceps},
	"Chin Ups":              {UpperBack, Biceps},
	"Deadlift":              {Hamstring, Gluteal, LowerBack, Trapezius},
	"Face Pull":             {BackDeltoids, UpperBack},
	"Lat Pulldown":          {UpperBack, Biceps},
	"Pull Ups":              {UpperBack, Biceps},
	"Romanian Deadlift":     {Hamstring, Gluteal, LowerBack},
	"Shrugs":                {Trapezius},
	"Straight Arm Pulldown": {UpperBack},
	"T-Bar Row":             {UpperBack, LowerBack, Biceps},

	// biceps
	"Bicep Curl":         {Biceps},
	"Concentration Curl": {Biceps},
	"Hammer Curl":        {Biceps, Forearm},
	"Preacher Curl":      {Biceps},

	// triceps
	"Close Grip Bench Press": {Triceps, Chest},
	"Tricep Kickback":        {Triceps},
	"Overhead Extension":     {Triceps},
	"Skull Crushers":         {Triceps},
	"Tricep Pushdown":        {Triceps},

	// forearms
	"Reverse Wrist Curls": {Forearm},
	"Wrist Curls":         {Forearm},

	// legs
	"Bulgarian Split Squat": {Quadriceps, Gluteal},
	"Front Squat":           {Quadriceps, Gluteal, Hamstring},
	"Good Mornings":         {Hamstring, Gluteal, LowerBack},
	"Leg Curl":              {Hamstring},
	"Leg Extension":         {Quadriceps},
	"Leg Press":             {Quadriceps, Gluteal},
	"Lunges":                {Quadriceps, Gluteal, Hamstring},
	"Squat":                 {Quadriceps, Gluteal, Hamstring},
	"Stiff Leg Deadlift":    {Hamstring, Gluteal, LowerBack},

	// glutes
	"Glute Bridge": {Gluteal, Hamstring},
	"Hip Thrust":   {Gluteal, Hamstring},

	// calves
	"Seated Calf Raise":   {Calves},
	"Standing Calf Raise": {Calves},

	// core
	"Ab Wheel":          {Abs},
	"Bicycle Crunch":    {Abs, Obliques},
	"Crunch":            {Abs},
	"Crunches":          {Abs},
	"Hanging Leg Raise": {Abs},
	"Leg Raises":        {Abs},
	"Plank":             {Abs},
	"Russian Twists":    {Abs, Obliques},
	"Side Plank":        {Abs, Obliques},
	"Sit Ups":           {Abs},
}
