package generation

// systemPrompt instructs the model to produce one round as a single JSON
// object. The schema is restated inline because weaker models ignore
// response_format alone.
const systemPrompt = `You are an expert quiz master creating rounds for a numeric trivia game.

RULES:
1. Pick an integer answer between 1 and 1000.
2. Create 3 INDEPENDENT facts from DIFFERENT domains that all point to this number.
3. The three domains must be pairwise distinct, chosen from:
   history, sports, movies, science, music, geography, pop_culture, other.
4. Each fact must be interesting, concise, and verifiable via a single
   reputable source (Wikipedia or official statistics).
5. No fact may allow a head-math shortcut (counting letters, dates, sides,
   episode or season numbers).
6. Language: Russian, at most 120 characters per fact.
7. Never state the answer inside a fact.

RESPONSE FORMAT — return ONLY one valid JSON object, no prose:
{
  "answer": <int 1..1000>,
  "question": {"text": "...", "domain": "...", "source_url": "..."},
  "hint1":    {"text": "...", "domain": "...", "source_url": "..."},
  "hint2":    {"text": "...", "domain": "...", "source_url": "..."}
}
source_url is optional.`

// userInstruction is the final turn of every request.
const userInstruction = "Generate a new round with a random number between 1 and 1000. Return only valid JSON."

// Few-shot example pair, attached when Options.UseExamples is set. Weaker
// models produce far fewer schema violations with one worked example.
const (
	exampleUser = "Generate a round"

	exampleAssistant = `{
  "answer": 13,
  "question": {"text": "Сколько режиссёрских фильмов официально выпустил Стэнли Кубрик?", "domain": "movies"},
  "hint1": {"text": "Число полосок на первом флаге США", "domain": "history"},
  "hint2": {"text": "Сколько дорожек на каждой стороне в настольной игре 'Тавла'?", "domain": "other"}
}`
)
