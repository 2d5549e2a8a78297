package schedule

// zoneOffsets перечисляет поддерживаемые IANA-зоны и их смещения от UTC в
// минутах. Для зон с переводом часов указаны оба смещения, зимнее и летнее:
// зона попадает в ведро каждого из них, а ложные срабатывания отсеивает
// проверка локальной полуночи при обработке.
var zoneOffsets = map[string][]int{
	"UTC":                          {0},
	"Europe/London":                {0, 60},
	"Europe/Lisbon":                {0, 60},
	"Africa/Casablanca":            {60, 0},
	"Europe/Paris":                 {60, 120},
	"Europe/Berlin":                {60, 120},
	"Europe/Madrid":                {60, 120},
	"Europe/Rome":                  {60, 120},
	"Europe/Amsterdam":             {60, 120},
	"Europe/Brussels":              {60, 120},
	"Europe/Zurich":                {60, 120},
	"Europe/Stockholm":             {60, 120},
	"Europe/Warsaw":                {60, 120},
	"Africa/Lagos":                 {60},
	"Europe/Athens":                {120, 180},
	"Europe/Bucharest":             {120, 180},
	"Europe/Kyiv":                  {120, 180},
	"Europe/Helsinki":              {120, 180},
	"Africa/Cairo":                 {120, 180},
	"Africa/Johannesburg":          {120},
	"Europe/Moscow":                {180},
	"Europe/Istanbul":              {180},
	"Asia/Riyadh":                  {180},
	"Africa/Nairobi":               {180},
	"Asia/Dubai":                   {240},
	"Asia/Tehran":                  {210},
	"Asia/Karachi":                 {300},
	"Asia/Kolkata":                 {330},
	"Asia/Dhaka":                   {360},
	"Asia/Bangkok":                 {420},
	"Asia/Jakarta":                 {420},
	"Asia/Shanghai":                {480},
	"Asia/Singapore":               {480},
	"Asia/Hong_Kong":               {480},
	"Australia/Perth":              {480},
	"Asia/Tokyo":                   {540},
	"Asia/Seoul":                   {540},
	"Australia/Adelaide":           {570, 630},
	"Australia/Sydney":             {600, 660},
	"Pacific/Auckland":             {720, 780},
	"Atlantic/Azores":              {-60, 0},
	"America/Sao_Paulo":            {-180},
	"America/Argentina/Buenos_Aires": {-180},
	"America/Santiago":             {-240, -180},
	"America/Halifax":              {-240, -180},
	"America/Caracas":              {-240},
	"America/New_York":             {-300, -240},
	"America/Toronto":              {-300, -240},
	"America/Bogota":               {-300},
	"America/Lima":                 {-300},
	"America/Chicago":              {-360, -300},
	"America/Mexico_City":          {-360},
	"America/Denver":               {-420, -360},
	"America/Phoenix":              {-420},
	"America/Los_Angeles":          {-480, -420},
	"America/Vancouver":            {-480, -420},
	"America/Anchorage":            {-540, -480},
	"Pacific/Honolulu":             {-600},
}

// timezoneBuckets сопоставляет каждому часу UTC зоны, в которых в этот час
// наступает локальная полночь.
var timezoneBuckets = buildBuckets()

func buildBuckets() map[int][]string {
	buckets := make(map[int][]string, 24)
	for zone, offsets := range zoneOffsets {
		seen := map[int]bool{}
		for _, offset := range offsets {
			hour := bucketHour(offset)
			if seen[hour] {
				continue
			}
			seen[hour] = true
			buckets[hour] = append(buckets[hour], zone)
		}
	}
	return buckets
}

// bucketHour возвращает час UTC, в начале которого в зоне с данным смещением
// локальное время имеет час 0. Для неполных часов смещение округляется вверх.
func bucketHour(offsetMinutes int) int {
	minutes := 24*60 - offsetMinutes
	hour := (minutes + 59) / 60
	return ((hour % 24) + 24) % 24
}

// TimezonesForUTCHour возвращает зоны, в которых в указанный час UTC наступает
// полночь. Неизвестные зоны в ведре отсутствуют и обслуживаются только ручной
// генерацией через API.
func TimezonesForUTCHour(hour int) []string {
	return timezoneBuckets[((hour%24)+24)%24]
}
