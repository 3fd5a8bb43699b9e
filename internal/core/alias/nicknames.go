package alias

// Nicknames maps a canonical given name to its known variants.
var Nicknames = map[string][]string{
	"abigail":     {"abby", "abbie", "gail"},
	"alexander":   {"alex", "al", "xander", "sandy"},
	"alexandra":   {"alex", "alexa", "lexi", "sandra", "sandy"},
	"andrew":      {"andy", "drew"},
	"anthony":     {"tony"},
	"barbara":     {"barb", "babs"},
	"benjamin":    {"ben", "benny", "benji"},
	"catherine":   {"cathy", "cat", "kate", "katie"},
	"charles":     {"charlie", "chuck", "chaz", "chas"},
	"christina":   {"chris", "christy", "tina"},
	"christopher": {"chris", "topher", "kit"},
	"daniel":      {"dan", "danny"},
	"david":       {"dave", "davey"},
	"deborah":     {"deb", "debbie", "debby"},
	"donald":      {"don", "donny"},
	"edward":      {"ed", "eddie", "ted", "ned"},
	"elizabeth":   {"liz", "lizzy", "beth", "betty", "eliza", "libby"},
	"frederick":   {"fred", "freddy", "rick"},
	"gregory":     {"greg"},
	"james":       {"jim", "jimmy", "jamie"},
	"jennifer":    {"jen", "jenny", "jenn"},
	"jeffrey":     {"jeff"},
	"john":        {"jack", "johnny", "jon"},
	"jonathan":    {"jon", "johnny", "nathan"},
	"joseph":      {"joe", "joey"},
	"joshua":      {"josh"},
	"katherine":   {"kathy", "kate", "katie", "kat", "kay"},
	"kenneth":     {"ken", "kenny"},
	"kimberly":    {"kim", "kimmy"},
	"lawrence":    {"larry", "laurie"},
	"margaret":    {"maggie", "meg", "peggy", "marge"},
	"matthew":     {"matt", "matty"},
	"michael":     {"mike", "mikey", "mick", "mickey"},
	"nicholas":    {"nick", "nicky", "nico"},
	"patricia":    {"pat", "patty", "trish", "tricia"},
	"patrick":     {"pat", "paddy", "rick"},
	"peter":       {"pete"},
	"rebecca":     {"becky", "becca"},
	"richard":     {"rich", "rick", "ricky", "dick"},
	"robert":      {"rob", "bob", "bobby", "robbie", "bert"},
	"ronald":      {"ron", "ronnie"},
	"samantha":    {"sam", "sammy"},
	"samuel":      {"sam", "sammy"},
	"stephen":     {"steve", "stevie"},
	"steven":      {"steve", "stevie"},
	"susan":       {"sue", "susie", "suzy"},
	"thomas":      {"tom", "tommy"},
	"timothy":     {"tim", "timmy"},
	"victoria":    {"vicky", "tori"},
	"william":     {"will", "bill", "billy", "willy"},
	"zachary":     {"zach", "zack"},
}

// nicknameIndex maps every name in Nicknames (canonical names included) to
// the canonical entries listing it. A variant can belong to several entries
// ("chris", "pat").
var nicknameIndex = buildNicknameIndex(Nicknames)

func buildNicknameIndex(dict map[string][]string) map[string][]string {
	index := make(map[string][]string, len(dict)*4)
	for canonical, variants := range dict {
		index[canonical] = append(index[canonical], canonical)
		for _, v := range variants {
			index[v] = append(index[v], canonical)
		}
	}
	return index
}
