package statute_test

const labourCode = `LIETUVOS RESPUBLIKOS DARBO KODEKSAS

PIRMOJI DALIS
BENDROSIOS NUOSTATOS

I SKYRIUS
DARBO TEISĖS REGLAMENTAVIMAS

1 straipsnis. Darbo kodekso paskirtis
Šis kodeksas reglamentuoja darbo santykius ir su jais susijusius santykius.

2 straipsnis. Darbo teisės principai
Darbo santykių teisinis reglamentavimas grindžiamas principais, nurodytais šio kodekso 1 straipsnyje ir 36 str.
Straipsnio pakeitimai:
Nr. XIII-198, 2017-01-19, paskelbta TAR 2017-01-26, i. k. 2017-01640

ANTROJI DALIS
INDIVIDUALIEJI DARBO SANTYKIAI

II SKYRIUS
DARBO SUTARTIS

PIRMASIS SKIRSNIS
DARBO SUTARTIES SUDARYMAS

36 straipsnis. Išbandymas
1. Sudarant darbo sutartį, šalių susitarimu gali būti nustatytas išbandymas. Išbandymo laikotarpis negali būti ilgesnis kaip trys mėnesiai. Taikomas šio kodekso 2 straipsnis ir 36 straipsnio 2 dalis.

ANTRASIS SKIRSNIS
DARBO SUTARTIES VYKDYMAS

37 straipsnis. Darbo sutarties vykdymas
Darbo sutarties šalys privalo tinkamai vykdyti savo pareigas pagal 36 straipsnį ir 999 straipsnį.

III SKYRIUS
DARBO LAIKAS

38 straipsnis. Darbo laiko režimas
Darbo laiko režimą nustato darbdavys, atsižvelgdamas į str. 37 nuostatas ir darbo sutartį.

39 straipsnis. Trumpas
Tekstas.
`
