package bookalias

import "github.com/FocuswithJustin/scriptref/core/versification"

// defaultEntries is the built-in alias table in declaration order. An alias
// listed under several books is ambiguous; earlier books win ties.
var defaultEntries = []struct {
	book    versification.Book
	aliases []string
}{
	{versification.Genesis, []string{"genesis", "gen", "ge", "gn"}},
	{versification.Exodus, []string{"exodus", "exod", "exo", "ex"}},
	{versification.Leviticus, []string{"leviticus", "lev", "lv", "le"}},
	{versification.Numbers, []string{"numbers", "num", "nm", "nb", "nu"}},
	{versification.Deuteronomy, []string{"deuteronomy", "deut", "dt", "deu", "de"}},
	{versification.Joshua, []string{"joshua", "josh", "jos", "jsh"}},
	{versification.Judges, []string{"judges", "judg", "jdg", "jgs", "jg"}},
	{versification.Ruth, []string{"ruth", "ru", "rut", "rth"}},
	{versification.FirstSamuel, []string{
		"1 samuel", "1samuel", "1 sam", "1sam", "i samuel", "isamuel", "i sam", "isam",
		"first samuel", "1st samuel", "1 sa", "1sa", "1 sm", "1sm", "1s",
	}},
	{versification.SecondSamuel, []string{
		"2 samuel", "2samuel", "2 sam", "2sam", "ii samuel", "iisamuel", "ii sam", "iisam",
		"second samuel", "2nd samuel", "2 sa", "2sa", "2 sm", "2sm", "2s",
	}},
	{versification.FirstKings, []string{
		"1 kings", "1kings", "1 kgs", "1kgs", "i kings", "ikings", "i kgs", "ikgs",
		"first kings", "1st kings", "1 ki", "1ki", "1 kg", "1kg", "1k",
	}},
	{versification.SecondKings, []string{
		"2 kings", "2kings", "2 kgs", "2kgs", "ii kings", "iikings", "ii kgs", "iikgs",
		"second kings", "2nd kings", "2 ki", "2ki", "2 kg", "2kg", "2k",
	}},
	{versification.FirstChronicles, []string{
		"1 chronicles", "1chronicles", "1 chr", "1chr", "i chronicles", "ichronicles", "i chr",
		"ichr", "first chronicles", "1st chronicles", "1 ch", "1ch", "1 chron", "1chron",
		"1 paralipomenon", "i paralipomenon",
	}},
	{versification.SecondChronicles, []string{
		"2 chronicles", "2chronicles", "2 chr", "2chr", "ii chronicles", "iichronicles",
		"ii chr", "iichr", "second chronicles", "2nd chronicles", "2 ch", "2ch", "2 chron",
		"2chron", "2 paralipomenon", "ii paralipomenon",
	}},
	{versification.Ezra, []string{"ezra", "ezr", "ez"}},
	{versification.Nehemiah, []string{"nehemiah", "neh", "ne"}},
	{versification.Esther, []string{"esther", "esth", "est", "es"}},
	{versification.Job, []string{"job", "jb"}},
	{versification.Psalms, []string{"psalms", "psalm", "ps", "psa", "psm", "pslm", "pslms", "pss"}},
	{versification.Proverbs, []string{"proverbs", "proverb", "prov", "pr", "prv", "pro"}},
	{versification.Ecclesiastes, []string{
		"ecclesiastes", "eccles", "eccl", "ecc", "ec", "qoh", "qoheleth",
	}},
	{versification.SongOfSongs, []string{
		"song of songs", "song", "songofsongs", "song of solomon", "songofsolomon", "canticles",
		"canticle of canticles", "ss", "so", "sos", "cant",
	}},
	{versification.Isaiah, []string{"isaiah", "isa", "is", "isaih"}},
	{versification.Jeremiah, []string{"jeremiah", "jer", "je", "jr"}},
	{versification.Lamentations, []string{"lamentations", "lam", "la"}},
	{versification.Ezekiel, []string{"ezekiel", "ezek", "eze", "ezk", "ek", "ezech", "ez"}},
	{versification.Daniel, []string{"daniel", "dan", "da", "dn"}},
	{versification.Hosea, []string{"hosea", "hos", "ho"}},
	{versification.Joel, []string{"joel", "joe", "jl", "jol"}},
	{versification.Amos, []string{"amos", "amo", "am"}},
	{versification.Obadiah, []string{"obadiah", "obad", "ob", "oba"}},
	{versification.Jonah, []string{"jonah", "jon", "jnh"}},
	{versification.Micah, []string{"micah", "mic", "mi"}},
	{versification.Nahum, []string{"nahum", "nah", "na", "nam"}},
	{versification.Habakkuk, []string{"habakkuk", "hab", "hb"}},
	{versification.Zephaniah, []string{"zephaniah", "zeph", "zep", "zp"}},
	{versification.Haggai, []string{"haggai", "hag", "hg"}},
	{versification.Zechariah, []string{"zechariah", "zech", "zec", "zc", "zechar", "zach"}},
	{versification.Malachi, []string{"malachi", "mal", "ml"}},
	{versification.Matthew, []string{"matthew", "matt", "mt", "mat", "mathew"}},
	{versification.Mark, []string{"mark", "mk", "mrk", "mr", "mar"}},
	{versification.Luke, []string{"luke", "lk", "luk", "lu"}},
	{versification.John, []string{"john", "jn", "jhn", "joh", "jon"}},
	{versification.Acts, []string{"acts", "act", "ac", "acts of the apostles"}},
	{versification.Romans, []string{"romans", "rom", "ro", "rm"}},
	{versification.FirstCorinthians, []string{
		"1 corinthians", "1corinthians", "1 cor", "1cor", "i corinthians", "icorinthians",
		"i cor", "icor", "first corinthians", "1st corinthians", "1 co", "1co",
	}},
	{versification.SecondCorinthians, []string{
		"2 corinthians", "2corinthians", "2 cor", "2cor", "ii corinthians", "iicorinthians",
		"ii cor", "iicor", "second corinthians", "2nd corinthians", "2 co", "2co",
	}},
	{versification.Galatians, []string{"galatians", "gal", "ga"}},
	{versification.Ephesians, []string{"ephesians", "eph", "ephes"}},
	{versification.Philippians, []string{"philippians", "phil", "php", "phi", "pp"}},
	{versification.Colossians, []string{"colossians", "col", "co"}},
	{versification.FirstThessalonians, []string{
		"1 thessalonians", "1thessalonians", "1 thess", "1thess", "i thessalonians",
		"ithessalonians", "i thess", "ithess", "first thessalonians", "1st thessalonians",
		"1 th", "1th",
	}},
	{versification.SecondThessalonians, []string{
		"2 thessalonians", "2thessalonians", "2 thess", "2thess", "ii thessalonians",
		"iithessalonians", "ii thess", "iithess", "second thessalonians", "2nd thessalonians",
		"2 th", "2th",
	}},
	{versification.FirstTimothy, []string{
		"1 timothy", "1timothy", "1 tim", "1tim", "i timothy", "itimothy", "i tim", "itim",
		"first timothy", "1st timothy", "1 ti", "1ti",
	}},
	{versification.SecondTimothy, []string{
		"2 timothy", "2timothy", "2 tim", "2tim", "ii timothy", "iitimothy", "ii tim", "iitim",
		"second timothy", "2nd timothy", "2 ti", "2ti",
	}},
	{versification.Titus, []string{"titus", "tit", "ti", "tts"}},
	{versification.Philemon, []string{"philemon", "philem", "phm", "phlm", "pm"}},
	{versification.Hebrews, []string{"hebrews", "heb", "he"}},
	{versification.James, []string{"james", "jas", "jm", "jam"}},
	{versification.FirstPeter, []string{
		"1 peter", "1peter", "1 pet", "1pet", "i peter", "ipeter", "i pet", "ipet",
		"first peter", "1st peter", "1 pe", "1pe", "1 pt", "1pt",
	}},
	{versification.SecondPeter, []string{
		"2 peter", "2peter", "2 pet", "2pet", "ii peter", "iipeter", "ii pet", "iipet",
		"second peter", "2nd peter", "2 pe", "2pe", "2 pt", "2pt",
	}},
	{versification.FirstJohn, []string{
		"1 john", "1john", "1 jn", "1jn", "i john", "ijohn", "i jn", "ijn", "first john",
		"1st john", "1 jo", "1jo",
	}},
	{versification.SecondJohn, []string{
		"2 john", "2john", "2 jn", "2jn", "ii john", "iijohn", "ii jn", "iijn", "second john",
		"2nd john", "2 jo", "2jo",
	}},
	{versification.ThirdJohn, []string{
		"3 john", "3john", "3 jn", "3jn", "iii john", "iiijohn", "iii jn", "iiijn",
		"third john", "3rd john", "3 jo", "3jo",
	}},
	{versification.Jude, []string{"jude", "jud", "jd"}},
	{versification.Revelation, []string{
		"revelation", "rev", "re", "rv", "revelations", "apocalypse", "apoc",
	}},
}
